package main

import "github.com/OpenTraceLab/KiCadVerilog/cmd/kicadverilog/cmd"

func main() {
	cmd.Execute()
}
