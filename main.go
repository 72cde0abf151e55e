// ./main.go
package main

import (
	"github.com/xkilldash9x/periscope/cmd"
)

func main() {
	cmd.Execute()
}
