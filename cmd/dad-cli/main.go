// SPDX-License-Identifier: Apache-2.0
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"dad/internal/decompile"
	"dad/internal/derrors"
	"dad/internal/writer"
)

// main is a thin CLI: load a program, ask which class, ask which
// method (or all of them), print the decompiled source. There is no
// .dex parser here — the input file is already-decoded method data in
// JSON form, the shape a real frontend would hand this core directly.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: dad-cli <program.json>")
		os.Exit(1)
	}

	program, err := loadProgram(os.Args[1])
	if err != nil {
		color.Red("failed to load program: %s", err)
		os.Exit(1)
	}

	in := bufio.NewScanner(os.Stdin)

	fmt.Printf("loaded %d classes\n", len(program.Classes))
	fmt.Print("class name (substring match): ")
	if !in.Scan() {
		return
	}
	needle := strings.TrimSpace(in.Text())

	class := decompile.FindClassBySubstring(program, needle)
	if class == nil {
		color.Red("no class matches %q", needle)
		os.Exit(1)
	}
	fmt.Printf("matched %s\n", class.Name)

	for i, m := range class.Methods {
		fmt.Printf(" [%d] %s\n", i, m.Name)
	}
	fmt.Print("method index, or * for all: ")
	if !in.Scan() {
		return
	}
	choice := strings.TrimSpace(in.Text())

	result := decompile.DecompileClass(class)
	if result.Err != nil {
		color.Red("class %s: %s", class.RawName, result.Err)
		os.Exit(1)
	}

	if choice == "*" {
		for _, mr := range result.Methods {
			printMethod(mr)
		}
		return
	}

	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 0 || idx >= len(result.Methods) {
		color.Red("invalid method index %q", choice)
		os.Exit(1)
	}
	printMethod(result.Methods[idx])
}

func printMethod(mr decompile.MethodResult) {
	if mr.Err != nil {
		fmt.Println(derrors.FormatMethodError(mr.Err))
		return
	}
	fmt.Print(writer.NewTextWriter().WriteMethod(mr.View))
	color.Green("✅ decompiled %s", mr.View.Name)
}

func loadProgram(path string) (*decompile.ProgramInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var program decompile.ProgramInput
	if err := json.Unmarshal(data, &program); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &program, nil
}
