//go:build !unix

package progress

import "os"

func terminalWidth(*os.File) int { return 0 }
