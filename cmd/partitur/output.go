package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// outputFlags are shared by the commands writing files.
type outputFlags struct {
	path   string
	safe   bool
	stdout bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.path, "output", "o", "", "directory or filename where to write the output; by default next to the input file")
	cmd.Flags().BoolVarP(&o.safe, "no-overwrite", "n", false, "never overwrite existing files")
	cmd.Flags().BoolVarP(&o.stdout, "stdout", "s", false, "write to standard output instead of a file")
}

// write stores contents in a file named after filename with the given
// extension, honoring the output flags. Unchanged files are not rewritten.
func (o *outputFlags) write(cmd *cobra.Command, filename, extension string, contents []byte) error {
	if o.stdout {
		_, err := cmd.OutOrStdout().Write(contents)
		return err
	}
	dir, name := filepath.Split(filename)
	if o.path != "" {
		if info, err := os.Stat(o.path); err == nil && info.IsDir() {
			dir = o.path
		} else {
			outdir, outname := filepath.Split(o.path)
			if outdir != "" {
				dir = outdir
			}
			if outname != "" {
				name = outname
			}
		}
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
	f := filepath.Join(dir, name)
	if original, err := os.ReadFile(f); err == nil {
		if bytes.Equal(original, contents) {
			return nil
		}
		if o.safe {
			return fmt.Errorf("file %v would be overwritten", f)
		}
	}
	if dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
	}
	if err := os.WriteFile(f, contents, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %v", f, err)
	}
	return nil
}
