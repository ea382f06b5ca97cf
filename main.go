// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/JosephRedfern/clickhouse-function-reference/cmd/chref"

func main() {
	cmd.Execute()
}
