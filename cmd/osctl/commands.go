package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"site-edge/osclient"

	"github.com/spf13/cobra"
)

type clientFactory func() (*osclient.Client, error)

func newRootCmd(out io.Writer, newClient clientFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "osctl",
		Short:         "Chamadas autenticadas à API OS do parceiro",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(tokenCmd(newClient))
	root.AddCommand(requestCmd(newClient))
	return root
}

func tokenCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Obtém um token e mostra a expiração",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if _, err := c.Token(cmd.Context()); err != nil {
				return err
			}
			tok := c.Cache().Current()
			fmt.Fprintf(cmd.OutOrStdout(), "expires_at: %s\n", tok.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func requestCmd(newClient clientFactory) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Faz uma request autenticada e imprime o JSON da resposta",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return fmt.Errorf("unsupported method %q", args[0])
			}

			var body any
			if data != "" {
				var raw json.RawMessage
				if err := json.Unmarshal([]byte(data), &raw); err != nil {
					return fmt.Errorf("invalid --data: %w", err)
				}
				body = raw
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			resp, err := c.Request(cmd.Context(), method, args[1], body)
			if err != nil {
				return err
			}
			if len(resp) == 0 {
				return nil
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, resp, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(resp)
			}
			pretty.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(pretty.Bytes())
			return err
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "corpo JSON da request")
	return cmd
}
