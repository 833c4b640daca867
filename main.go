// SPDX-License-Identifier: MPL-2.0

// Command wheelwright builds Python source and binary distributions.
package main

import cmd "github.com/invowk/wheelwright/cmd/wheelwright"

func main() {
	cmd.Execute()
}
