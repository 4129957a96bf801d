package main

import "github.com/kiavash/daftar/cmd"

func main() {
	cmd.Execute()
}
