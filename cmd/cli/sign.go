package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/paytrust/internal/application/dto"
	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
	"github.com/turtacn/paytrust/pkg/constants"
)

// ================================================================================
// sign
// ================================================================================

func newSignCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Produce SNAP request signatures",
	}
	cmd.AddCommand(newSignAsymmetricCommand(), newSignSymmetricCommand())
	return cmd
}

func newSignAsymmetricCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asymmetric",
		Short: "Sign <clientKey>|<timestamp> with an RSA private key (SHA256withRSA)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "private-key", "client-key"); err != nil {
				return err
			}
			keyFlag, _ := cmd.Flags().GetString("private-key")
			clientKey, _ := cmd.Flags().GetString("client-key")
			timestamp := timestampFlag(cmd)

			keyPEM, err := readInput(cmd, keyFlag)
			if err != nil {
				return err
			}
			signer, err := crypto.NewRSASigner(string(keyPEM))
			if err != nil {
				return err
			}
			payload := crypto.AsymmetricStringToSign(clientKey, timestamp)
			signature, err := signer.SignAsBase64(payload)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.SignatureResponse{Signature: signature, StringToSign: string(payload)})
		},
	}
	cmd.Flags().String("private-key", "", "PEM private key, or @file")
	cmd.Flags().String("client-key", "", "X-CLIENT-KEY of the partner")
	cmd.Flags().String("timestamp", "", "X-TIMESTAMP value (default: now)")
	return cmd
}

func newSignSymmetricCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symmetric",
		Short: "Sign a transactional request with the client secret (HMAC-SHA512)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "secret", "method", "path"); err != nil {
				return err
			}
			secret, _ := cmd.Flags().GetString("secret")
			signer, err := crypto.NewHMACSignerFromString(secret)
			if err != nil {
				return err
			}
			payload, err := symmetricPayload(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.SignatureResponse{Signature: signer.Sign(payload), StringToSign: string(payload)})
		},
	}
	addSymmetricFlags(cmd)
	return cmd
}

// ================================================================================
// verify
// ================================================================================

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check SNAP request signatures and print the gateway's response envelope",
	}
	cmd.AddCommand(newVerifyAsymmetricCommand(), newVerifySymmetricCommand())
	return cmd
}

func newVerifyAsymmetricCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asymmetric",
		Short: "Verify an access token request signature against a partner public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "public-key", "client-key", "timestamp", "signature"); err != nil {
				return err
			}
			keyFlag, _ := cmd.Flags().GetString("public-key")
			clientKey, _ := cmd.Flags().GetString("client-key")
			timestamp, _ := cmd.Flags().GetString("timestamp")
			signature, _ := cmd.Flags().GetString("signature")
			serviceCode, _ := cmd.Flags().GetUint8("service-code")

			keyPEM, err := readInput(cmd, keyFlag)
			if err != nil {
				return err
			}
			verifier, err := crypto.NewRSAVerifier(string(keyPEM))
			if err != nil {
				return reportVerification(cmd, err, serviceCode)
			}
			err = verifier.VerifyBase64(signature, crypto.AsymmetricStringToSign(clientKey, timestamp))
			return reportVerification(cmd, err, serviceCode)
		},
	}
	cmd.Flags().String("public-key", "", "PEM public key of the partner, or @file")
	cmd.Flags().String("client-key", "", "X-CLIENT-KEY of the partner")
	cmd.Flags().String("timestamp", "", "X-TIMESTAMP value")
	cmd.Flags().String("signature", "", "X-SIGNATURE value")
	cmd.Flags().Uint8("service-code", constants.ServiceCodeAccessTokenB2B, "service code used in the response code")
	return cmd
}

func newVerifySymmetricCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symmetric",
		Short: "Verify a transactional request signature against the client secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "secret", "method", "path", "signature"); err != nil {
				return err
			}
			secret, _ := cmd.Flags().GetString("secret")
			signature, _ := cmd.Flags().GetString("signature")
			serviceCode, _ := cmd.Flags().GetUint8("service-code")

			signer, err := crypto.NewHMACSignerFromString(secret)
			if err != nil {
				return err
			}
			payload, err := symmetricPayload(cmd)
			if err != nil {
				return reportVerification(cmd, err, serviceCode)
			}
			return reportVerification(cmd, signer.Verify(signature, payload), serviceCode)
		},
	}
	addSymmetricFlags(cmd)
	cmd.Flags().String("signature", "", "X-SIGNATURE value")
	cmd.Flags().Uint8("service-code", constants.ServiceCodeSignatureUtility, "service code used in the response code")
	return cmd
}

// ================================================================================
// helpers
// ================================================================================

func addSymmetricFlags(cmd *cobra.Command) {
	cmd.Flags().String("secret", "", "client secret")
	cmd.Flags().String("method", "", "HTTP method of the request")
	cmd.Flags().String("path", "", "relative endpoint URL including the query string")
	cmd.Flags().String("token", "", "B2B access token, without the Bearer prefix")
	cmd.Flags().String("body", "", "request body, or @file, or @- for stdin")
	cmd.Flags().String("timestamp", "", "X-TIMESTAMP value (default: now)")
}

func symmetricPayload(cmd *cobra.Command) ([]byte, error) {
	method, _ := cmd.Flags().GetString("method")
	path, _ := cmd.Flags().GetString("path")
	token, _ := cmd.Flags().GetString("token")
	bodyFlag, _ := cmd.Flags().GetString("body")

	body, err := readInput(cmd, bodyFlag)
	if err != nil {
		return nil, err
	}
	return crypto.SymmetricStringToSign(method, path, token, body, timestampFlag(cmd))
}

// timestampFlag returns --timestamp, defaulting to the current time in ISO-8601.
func timestampFlag(cmd *cobra.Command) string {
	ts, _ := cmd.Flags().GetString("timestamp")
	if ts == "" {
		ts = time.Now().Format(time.RFC3339)
	}
	return ts
}

// reportVerification prints the envelope the gateway would answer with and
// returns a non-nil error on rejection so the process exits non-zero.
func reportVerification(cmd *cobra.Command, err error, serviceCode uint8) error {
	if err == nil {
		return printJSON(cmd, dto.Success(dto.Empty{}, serviceCode))
	}
	respErr := crypto.ToResponseError(err)
	if printErr := printJSON(cmd, dto.FromError[dto.Empty](respErr, serviceCode)); printErr != nil {
		return printErr
	}
	return fmt.Errorf("signature rejected: %s", respErr.Kind())
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return err
}
