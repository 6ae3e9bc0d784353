package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"remitdesk/internal/models"
	"remitdesk/internal/terms"
)

type termsOptions struct {
	amount         string
	currency       string
	clientCurrency string
	kind           string
	percent        string
	fixed          string
	rate           string
	total          string
}

func newTermsCmd() *cobra.Command {
	var opts termsOptions

	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Compute a terms breakdown locally",
		Example: `  remitctl terms --amount 1000 --currency USD --type percent --percent 2 --rate 15000 --client-currency IDR
  remitctl terms --amount 500 --type fixed --fixed 25 --rate 0.92 --total 490`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerms(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.amount, "amount", "", "Order amount")
	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "Order currency")
	cmd.Flags().StringVar(&opts.clientCurrency, "client-currency", "", "Client currency (default: order currency)")
	cmd.Flags().StringVar(&opts.kind, "type", "", "Remuneration type: percent or fixed")
	cmd.Flags().StringVar(&opts.percent, "percent", "", "Remuneration percentage")
	cmd.Flags().StringVar(&opts.fixed, "fixed", "", "Fixed remuneration")
	cmd.Flags().StringVar(&opts.rate, "rate", "", "Exchange rate")
	cmd.Flags().StringVar(&opts.total, "total", "", "Total override in client currency")
	_ = cmd.MarkFlagRequired("amount")
	cmd.MarkFlagsMutuallyExclusive("percent", "fixed")
	return cmd
}

func optionalDecimal(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q", name, value)
	}
	return &d, nil
}

func runTerms(out io.Writer, opts termsOptions) error {
	amount, err := decimal.NewFromString(opts.amount)
	if err != nil {
		return fmt.Errorf("invalid --amount %q", opts.amount)
	}

	t := models.Terms{RemunerationType: models.RemunerationType(opts.kind)}
	if t.RemunerationPercentage, err = optionalDecimal("percent", opts.percent); err != nil {
		return err
	}
	if t.RemunerationFixed, err = optionalDecimal("fixed", opts.fixed); err != nil {
		return err
	}
	if t.ExchangeRate, err = optionalDecimal("rate", opts.rate); err != nil {
		return err
	}
	if t.AmountToBePaidTargetCur, err = optionalDecimal("total", opts.total); err != nil {
		return err
	}

	// Infer the type from whichever fee flag was given.
	if t.RemunerationType == models.RemunerationNone {
		switch {
		case t.RemunerationPercentage != nil:
			t.RemunerationType = models.RemunerationPercent
		case t.RemunerationFixed != nil:
			t.RemunerationType = models.RemunerationFixed
		}
	}

	b, err := terms.Calculate(amount, t)
	if err != nil {
		return err
	}

	currency := strings.ToUpper(opts.currency)
	clientCurrency := strings.ToUpper(opts.clientCurrency)
	if clientCurrency == "" {
		clientCurrency = currency
	}
	printBreakdown(out, b.Rounded(currency, clientCurrency), currency, clientCurrency)
	return nil
}

func printBreakdown(out io.Writer, b terms.Breakdown, currency, clientCurrency string) {
	om := terms.MinorUnits(currency)
	cm := terms.MinorUnits(clientCurrency)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Remuneration:\t%s %s\n", b.AmountRemuneration.StringFixed(om), currency)
	if b.RateMissing {
		fmt.Fprintf(w, "FV:\t%s %s\t(no exchange rate)\n", b.FaceValue.StringFixed(cm), clientCurrency)
	} else {
		fmt.Fprintf(w, "FV:\t%s %s\n", b.FaceValue.StringFixed(cm), clientCurrency)
	}
	fmt.Fprintf(w, "Remuneration (client):\t%s %s\n", b.RemunerationInClientCurrency.StringFixed(cm), clientCurrency)
	if b.TotalOverridden {
		fmt.Fprintf(w, "Total:\t%s %s\t(override)\n", b.Total.StringFixed(cm), clientCurrency)
	} else {
		fmt.Fprintf(w, "Total:\t%s %s\n", b.Total.StringFixed(cm), clientCurrency)
	}
	w.Flush()
}
