package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPaymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Payment lifecycle commands",
	}

	cmd.AddCommand(newPaymentCreateCmd())
	cmd.AddCommand(newPaymentGetCmd())
	cmd.AddCommand(newPaymentApproveCmd())
	cmd.AddCommand(newPaymentSubmitCmd())
	cmd.AddCommand(newPaymentCompleteCmd())
	cmd.AddCommand(newPaymentCancelCmd())

	return cmd
}

func newPaymentCreateCmd() *cobra.Command {
	var amount, memo, metadataJSON, idempotencyKey string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount == "" {
				return fmt.Errorf("--amount is required")
			}

			metadata := map[string]any{}
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
					return fmt.Errorf("invalid --metadata JSON: %w", err)
				}
			}

			req := map[string]any{
				"amount":   amount,
				"memo":     memo,
				"metadata": metadata,
			}
			if idempotencyKey != "" {
				req["idempotency_key"] = idempotencyKey
			}

			var result Payment
			if err := client.Post("/api/v1/payments", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Payment amount (required)")
	cmd.Flags().StringVar(&memo, "memo", "", "Payment memo")
	cmd.Flags().StringVar(&metadataJSON, "metadata", "", "Payment metadata as JSON")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newPaymentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <payment-id>",
		Short: "Show a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Payment
			if err := client.Get("/api/v1/payments/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPaymentApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <payment-id>",
		Short: "Approve a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Payment
			if err := client.Post("/api/v1/payments/"+args[0]+"/approve", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPaymentSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <payment-id>",
		Short: "Submit a payment to the blockchain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SubmitResult
			if err := client.Post("/api/v1/payments/"+args[0]+"/submit", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPaymentCompleteCmd() *cobra.Command {
	var txid string

	cmd := &cobra.Command{
		Use:   "complete <payment-id>",
		Short: "Complete a payment with its transaction id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if txid == "" {
				return fmt.Errorf("--txid is required")
			}

			req := map[string]string{"txid": txid}
			var result Payment
			if err := client.Post("/api/v1/payments/"+args[0]+"/complete", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&txid, "txid", "", "Blockchain transaction id (required)")
	_ = cmd.MarkFlagRequired("txid")

	return cmd
}

func newPaymentCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <payment-id>",
		Short: "Cancel a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Payment
			if err := client.Post("/api/v1/payments/"+args[0]+"/cancel", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
