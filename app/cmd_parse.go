package app

import (
	"fmt"
	"io"

	"github.com/JiscSD/cpdlc-channel-adapter/message"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs is the filesystem read by the parse command.
var appFs = afero.NewOsFs()

func NewCmdParse(out io.Writer) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Decode a relay response dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doParse(out, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File")

	return cmd
}

func doParse(out io.Writer, file string) error {
	if file == "" {
		return errors.New("parameter empty")
	}
	data, err := afero.ReadFile(appFs, file)
	if err != nil {
		return errors.Wrap(err, "cannot read file")
	}
	envs, err := message.Parse(string(data))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d envelope(s) found\n", len(envs))
	for _, env := range envs {
		if env.CPDLC == nil {
			fmt.Fprintf(out, "%-8s %-8s %s\n", env.Station, env.Type, env.Payload)
			continue
		}
		fmt.Fprintf(out, "%-8s %-8s #%d %s (%s)\n", env.Station, env.Type, env.CPDLC.MessageID, env.Payload, env.CPDLC.ReplyTag)
	}
	return nil
}
