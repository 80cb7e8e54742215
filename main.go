package main

import "github.com/KaramelBytes/plmview-cli/cmd"

func main() {
	cmd.Execute()
}
