package helpers

import (
	// Go Internal Packages
	"encoding/json"
	"fmt"
	"io"
)

// PrintStruct writes v to w as indented json. Used by the inspect command.
func PrintStruct(w io.Writer, v any) error {
	res, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(res))
	return err
}
