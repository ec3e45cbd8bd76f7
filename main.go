package main

import "github.com/freedom12321/chatR-GSOC/cmd"

func main() {
	cmd.Execute()
}
