package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/gate"
)

func (c *CLI) verifyCommand() *cobra.Command {
	var (
		claim  gate.Claim
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a submitted image against its reference render",
		Long: `Verify a mint claim.

The claim is given by flags or read as JSON from --claim (use - for stdin).
The image is an ipfs:// URI, a bare CID or an http(s) URL. The command exits
non-zero when the claim is rejected.`,
		Example: `  splicer verify --job 7 --collection 0x231e5BA16e2C9BE8918cf67d477052f3F6C35036 \
      --token 1 --style 2 --image ipfs://bafkrei...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			if file != "" {
				if err := readClaim(file, &claim); err != nil {
					return err
				}
			}

			a, err := c.newApp(ctx, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if claim.Network == 0 {
				claim.Network = a.cfg.Networks[0].ID
			}

			res := c.evaluate(ctx, a.gate, claim)
			if asJSON {
				if err := json.NewEncoder(c.out.w).Encode(res); err != nil {
					return err
				}
			} else {
				c.printResult(res)
			}
			if !res.Verdict.Accepted {
				return errors.New(res.Verdict.Reason, "claim rejected: %s", res.Verdict.Message)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Uint32Var(&claim.JobID, "job", 0, "mint job id")
	fl.Uint64VarP(&claim.Network, "network", "n", 0, "network id (default: first configured)")
	fl.StringVar(&claim.Collection, "collection", "", "collection address of the token")
	fl.StringVar(&claim.TokenID, "token", "", "token id")
	fl.Uint64Var(&claim.StyleID, "style", 0, "style id")
	fl.StringVar(&claim.ImageRef, "image", "", "submitted image reference")
	fl.StringSliceVar(&claim.Palette, "palette", nil, "palette override as hex colors")
	fl.StringVar(&file, "claim", "", "read the claim from a JSON file")
	fl.BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (c *CLI) evaluate(ctx context.Context, g *gate.Gate, claim gate.Claim) *gate.Result {
	sp := newSpinner(ctx, os.Stderr, fmt.Sprintf("Verifying job %d", claim.JobID)).Start()
	defer sp.Stop()
	return g.Evaluate(ctx, claim)
}

func (c *CLI) printResult(res *gate.Result) {
	v := res.Verdict
	if v.Accepted {
		c.out.success("Job %d accepted", res.Claim.JobID)
	} else {
		c.out.failure("Job %d rejected: %s", res.Claim.JobID, v.Reason)
		if v.Message != "" {
			c.out.detail("%s", v.Message)
		}
	}
	c.out.keyValue("stage", res.Stage.String())
	c.out.keyValue("difference", fmt.Sprintf("%.2f%%", v.DiffPercentage))
	c.out.keyNumber("seed", res.Seed)
	if res.ReferenceCID != "" {
		c.out.keyValue("reference", res.ReferenceCID)
	}
	if res.CandidateCID != "" {
		c.out.keyValue("candidate", res.CandidateCID)
	}
	c.out.keyValue("approval", res.Approval.String())
	c.out.detail("receipt %s (%s)", res.ID, res.Duration.Round(time.Millisecond))
}

func readClaim(path string, claim *gate.Claim) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read claim")
	}
	if err := json.Unmarshal(data, claim); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse claim")
	}
	return nil
}
