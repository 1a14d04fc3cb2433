package main

import "github.com/kcenon/file-manager/build-tools/cmd"

func main() {
	cmd.Execute()
}
