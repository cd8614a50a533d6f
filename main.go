/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "claude-wm-cli/cmd"

func main() {
	cmd.Execute()
}
