/*
Copyright © 2026 Paulo Suderio
*/
package main

import "github.com/suderio/werewolf-arena/cmd"

func main() {
	cmd.Execute()
}
