package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/turtacn/paytrust/internal/application/dto"
	"github.com/turtacn/paytrust/pkg/errors"
)

// ================================================================================
// code
// ================================================================================

func newCodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Compose and explain seven digit SNAP response codes",
	}

	encode := &cobra.Command{
		Use:   "encode <kind>",
		Short: "Print the response code and message of an error kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			service, _ := cmd.Flags().GetUint8("service-code")
			detail, _ := cmd.Flags().GetString("detail")
			e := errors.New(kind, detail)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Code(service), e.Message())
			return err
		},
	}
	encode.Flags().Uint8("service-code", 0, "service code of the endpoint")
	encode.Flags().String("detail", "", "detail for kinds whose message carries one")

	decode := &cobra.Command{
		Use:   "decode <code>",
		Short: "Split a response code and name its error kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := errors.ParseResponseCode(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "status\t%d\n", code.HTTPStatus())
			fmt.Fprintf(w, "service\t%02d\n", code.ServiceCode())
			fmt.Fprintf(w, "case\t%02d\n", code.CaseCode())
			switch kind, ok := code.Kind(); {
			case code.IsSuccess():
				fmt.Fprintf(w, "kind\tSuccessful\n")
			case ok:
				fmt.Fprintf(w, "kind\t%s\n", kind)
				fmt.Fprintf(w, "category\t%s\n", kind.Category())
			default:
				fmt.Fprintf(w, "kind\tunknown\n")
			}
			return w.Flush()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the error catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _ := cmd.Flags().GetUint8("service-code")
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tKIND\tCATEGORY\tMESSAGE")
			for _, kind := range errors.Kinds() {
				e := errors.New(kind, "")
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Code(service), kind, kind.Category(), e.Message())
			}
			return w.Flush()
		},
	}
	list.Flags().Uint8("service-code", 0, "service code of the endpoint")

	cmd.AddCommand(encode, decode, list)
	return cmd
}

// parseKind matches a catalogue name case-insensitively.
func parseKind(name string) (errors.Kind, error) {
	for _, kind := range errors.Kinds() {
		if strings.EqualFold(kind.String(), name) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown error kind %q, see `paytrust-admin code list`", name)
}

// ================================================================================
// envelope
// ================================================================================

func newEnvelopeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envelope",
		Short: "Render and parse flat SNAP response bodies",
	}

	render := &cobra.Command{
		Use:   "render <kind>",
		Short: "Print the error envelope of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			service, _ := cmd.Flags().GetUint8("service-code")
			detail, _ := cmd.Flags().GetString("detail")
			return printJSON(cmd, dto.FromError[dto.Empty](errors.New(kind, detail), service))
		},
	}
	render.Flags().Uint8("service-code", 0, "service code of the endpoint")
	render.Flags().String("detail", "", "detail for kinds whose message carries one")

	parse := &cobra.Command{
		Use:   "parse <json|@file|@->",
		Short: "Decode a response body and report its outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var env dto.Envelope[map[string]json.RawMessage]
			if err := json.Unmarshal(raw, &env); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "code\t%s\n", env.ResponseCode())
			fmt.Fprintf(w, "message\t%s\n", env.ResponseMessage())
			fmt.Fprintf(w, "http status\t%d\n", env.HTTPStatus())
			if env.IsSuccess() {
				fmt.Fprintf(w, "outcome\tsuccess\n")
				if p := env.Payload(); p != nil {
					for name, value := range *p {
						fmt.Fprintf(w, "payload.%s\t%s\n", name, value)
					}
				}
			} else if kind, ok := env.ErrorKind(); ok {
				fmt.Fprintf(w, "outcome\t%s error\n", kind.Category())
				fmt.Fprintf(w, "kind\t%s\n", kind)
			} else {
				fmt.Fprintf(w, "outcome\terror (kind not in catalogue)\n")
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(render, parse)
	return cmd
}
