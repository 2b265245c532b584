package cmd

import (
	"fmt"

	cfgpkg "github.com/KaramelBytes/tabscope/internal/config"
	"github.com/KaramelBytes/tabscope/internal/dataset"
	"github.com/spf13/cobra"
)

// inputFlags are the parsing overrides shared by every command that reads a table.
type inputFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	encoding   string
	maxRows    int
	noUnits    bool
	sheetName  string
	sheetIndex int
}

func (in *inputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&in.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (sniffed if omitted)")
	f.StringVar(&in.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&in.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.StringVar(&in.encoding, "encoding", "", "text encoding: utf-8|windows-1252|iso-8859-1|utf-16")
	f.IntVar(&in.maxRows, "max-rows", 0, "maximum rows to process (overrides config, 0 keeps config)")
	f.BoolVar(&in.noUnits, "no-unit-normalize", false, "keep values in the units found in headers")
	f.StringVar(&in.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	f.IntVar(&in.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (in *inputFlags) reset() { *in = inputFlags{sheetIndex: 1} }

// options merges config and flags into loader options. Flags win.
func (in *inputFlags) options(c *cfgpkg.Global) (dataset.LoadOptions, error) {
	opt, err := c.LoadOptions()
	if err != nil {
		return opt, err
	}
	if in.delimiter != "" {
		if opt.Delimiter, err = cfgpkg.ParseDelimiter(in.delimiter); err != nil {
			return opt, fmt.Errorf("--delimiter: %w", err)
		}
	}
	if in.decimal != "" {
		if opt.DecimalSeparator, err = cfgpkg.ParseDecimal(in.decimal); err != nil {
			return opt, fmt.Errorf("--decimal: %w", err)
		}
	}
	if in.thousands != "" {
		if opt.ThousandsSeparator, err = cfgpkg.ParseThousands(in.thousands); err != nil {
			return opt, fmt.Errorf("--thousands: %w", err)
		}
	}
	if in.encoding != "" {
		opt.Encoding = in.encoding
	}
	if in.maxRows > 0 {
		opt.MaxRows = in.maxRows
	}
	if in.noUnits {
		opt.UnitNormalize = false
	}
	opt.SheetName = in.sheetName
	opt.SheetIndex = in.sheetIndex
	opt.Logger = logger
	return opt, nil
}

func (in *inputFlags) load(path string) (*dataset.Table, error) {
	opt, err := in.options(cfg)
	if err != nil {
		return nil, err
	}
	return dataset.LoadFile(path, opt)
}
