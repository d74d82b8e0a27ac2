package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muskater/libelektra/driver"
	"github.com/muskater/libelektra/pkg"
)

// TomlParams holds the toml subcommand's flags.
type TomlParams struct {
	Root   string // document-root key name new keys are nested under
	Find   string // if set, only print keys whose name has this prefix
	Input  string // input TOML file path
	Output string // output file path; stdout if empty
}

var params *TomlParams

var tomlCmd = &cobra.Command{
	Use:   "toml",
	Short: "parse a TOML file into flat, ordered configuration keys",
	Run:   tomlRun,
}

func init() {
	params = &TomlParams{}
	tomlCmd.Flags().StringVarP(&params.Root, "root", "r", "user/config", "document root key name")
	tomlCmd.Flags().StringVarP(&params.Find, "find", "f", "", "only print keys under this name prefix")
	tomlCmd.Flags().StringVarP(&params.Input, "input", "i", "", "input file path")
	tomlCmd.Flags().StringVarP(&params.Output, "output", "o", "", "output path (stdout if empty)")
}

func tomlRun(cmd *cobra.Command, args []string) {
	if len(params.Input) == 0 {
		fmt.Println("no input file path")
		return
	}
	exist, err := pkg.CheckFileExist(params.Input)
	if err != nil {
		fmt.Println("check file exist error:", err)
		return
	}
	if !exist {
		fmt.Println("input file not exist")
		return
	}

	f, err := os.Open(params.Input)
	if err != nil {
		fmt.Println("open input file error:", err)
		return
	}
	defer f.Close()

	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	st, err := driver.Parse(f, driver.Options{RootName: params.Root, Logger: log})
	if err != nil {
		fmt.Println("toml parse error:", err)
		if root, ok := st.Lookup(params.Root); ok {
			for _, name := range root.MetaNames() {
				if strings.HasPrefix(name, "error/#") {
					v, _ := root.GetMeta(name)
					fmt.Println(v)
				}
			}
		}
	}

	var out *os.File
	if params.Output == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(params.Output)
		if err != nil {
			fmt.Println("open output file error:", err)
			return
		}
		defer out.Close()
	}

	for _, k := range st.All() {
		if params.Find != "" && !strings.HasPrefix(k.Name(), params.Find) {
			continue
		}
		if k.Binary() {
			fmt.Fprintf(out, "%s = (binary)\n", k.Name())
			continue
		}
		fmt.Fprintf(out, "%s = %s\n", k.Name(), k.Value())
	}
}
