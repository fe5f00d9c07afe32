package cmd

import (
	"fmt"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/lendcore/lendcore/app/node"
	"github.com/lendcore/lendcore/pkg/actors/proposal"
	"github.com/lendcore/lendcore/pkg/actors/proposal/dutchauction"
	"github.com/lendcore/lendcore/pkg/clock"
	"github.com/lendcore/lendcore/pkg/crypto"
	"github.com/lendcore/lendcore/pkg/types"
)

var proposalCmd = &cli.Command{
	Name:  "proposal",
	Usage: "hash, price, sign and redeem Dutch auction proposals given as json files",
	Subcommands: []*cli.Command{
		proposalHashCmd,
		proposalPriceCmd,
		proposalEncodeCmd,
		proposalDecodeCmd,
		proposalSignCmd,
		proposalSignMultiCmd,
		proposalMakeCmd,
		proposalStatusCmd,
		proposalRevokeNonceCmd,
		proposalAcceptCmd,
	},
}

var proposalHashCmd = &cli.Command{
	Name:      "hash",
	ArgsUsage: "<proposal.json>",
	Action: func(cctx *cli.Context) error {
		p, err := readProposal(cctx.Args().First())
		if err != nil {
			return err
		}
		return withNode(cctx, func(nd *node.Node) error {
			hash, err := nd.GetProposalHash(p)
			if err != nil {
				return err
			}
			return printJSON(cctx, map[string]string{"hash": hash.Hex(), "cid": hash.Cid().String()})
		})
	},
}

var proposalPriceCmd = &cli.Command{
	Name:      "price",
	Usage:     "print the auction credit amount at --time, or now",
	ArgsUsage: "<proposal.json>",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "time",
			Usage: "unix seconds",
		},
	},
	Action: func(cctx *cli.Context) error {
		p, err := readProposal(cctx.Args().First())
		if err != nil {
			return err
		}
		t := clock.NewSystemClock().Unix()
		if cctx.IsSet("time") {
			t = cctx.Uint64("time")
		}
		amount, err := dutchauction.GetCreditAmount(p, t)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cctx.App.Writer, amount)
		return err
	},
}

var proposalEncodeCmd = &cli.Command{
	Name:      "encode",
	Usage:     "encode a proposal with acceptance values into proposal data",
	ArgsUsage: "<proposal.json>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "intended",
			Usage:    "intended credit amount",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "slippage",
			Usage: "tolerated deviation from the auction price",
			Value: "0",
		},
	},
	Action: func(cctx *cli.Context) error {
		p, err := readProposal(cctx.Args().First())
		if err != nil {
			return err
		}
		intended, err := parseBigInt(cctx.String("intended"))
		if err != nil {
			return err
		}
		slippage, err := parseBigInt(cctx.String("slippage"))
		if err != nil {
			return err
		}
		data, err := dutchauction.EncodeProposalData(p, dutchauction.ProposalValues{
			IntendedCreditAmount: intended,
			Slippage:             slippage,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cctx.App.Writer, encodeHex(data))
		return err
	},
}

var proposalDecodeCmd = &cli.Command{
	Name:      "decode",
	ArgsUsage: "<hex proposal data>",
	Action: func(cctx *cli.Context) error {
		data, err := decodeHex(cctx.Args().First())
		if err != nil {
			return err
		}
		p, v, err := dutchauction.DecodeProposalData(data)
		if err != nil {
			return err
		}
		return printJSON(cctx, struct {
			Proposal *dutchauction.Proposal     `json:"proposal"`
			Values   dutchauction.ProposalValues `json:"values"`
		}{p, v})
	},
}

var signerFlag = &cli.StringFlag{
	Name:     "signer",
	Usage:    "wallet address of the proposer",
	Required: true,
}

// signWithWallet signs data with the signer's wallet key and returns the wire
// form of the signature.
func signWithWallet(cctx *cli.Context, nd *node.Node, data []byte) ([]byte, error) {
	signer, err := parseAddress(cctx.String("signer"))
	if err != nil {
		return nil, err
	}
	w, err := openWallet(cctx, nd.Repo())
	if err != nil {
		return nil, err
	}
	sig, err := w.SignBytes(cctx.Context, data, signer)
	if err != nil {
		return nil, err
	}
	return crypto.EncodeSignature(sig)
}

var proposalSignCmd = &cli.Command{
	Name:      "sign",
	Usage:     "sign the hash of a proposal",
	ArgsUsage: "<proposal.json>",
	Flags:     []cli.Flag{signerFlag, passwordFlag},
	Action: func(cctx *cli.Context) error {
		p, err := readProposal(cctx.Args().First())
		if err != nil {
			return err
		}
		return withNode(cctx, func(nd *node.Node) error {
			hash, err := nd.GetProposalHash(p)
			if err != nil {
				return err
			}
			sig, err := signWithWallet(cctx, nd, hash[:])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cctx.App.Writer, encodeHex(sig))
			return err
		})
	},
}

type multiproposalOutput struct {
	Root      string     `json:"root"`
	Signature string     `json:"signature"`
	Proposals []proofOut `json:"proposals"`
}

type proofOut struct {
	File  string   `json:"file"`
	Hash  string   `json:"hash"`
	Proof []string `json:"proof"`
}

var proposalSignMultiCmd = &cli.Command{
	Name:      "sign-multi",
	Usage:     "sign several proposals at once and print each inclusion proof",
	ArgsUsage: "<proposal.json>...",
	Flags:     []cli.Flag{signerFlag, passwordFlag},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() == 0 {
			return errors.New("expected at least one proposal")
		}
		var proposals []*dutchauction.Proposal
		for _, f := range cctx.Args().Slice() {
			p, err := readProposal(f)
			if err != nil {
				return err
			}
			proposals = append(proposals, p)
		}
		return withNode(cctx, func(nd *node.Node) error {
			var mp proposal.Multiproposal
			for _, p := range proposals {
				hash, err := nd.GetProposalHash(p)
				if err != nil {
					return err
				}
				mp.Hashes = append(mp.Hashes, hash)
			}
			root, err := mp.Root()
			if err != nil {
				return err
			}
			sig, err := signWithWallet(cctx, nd, proposal.MultiproposalHash(root).Bytes())
			if err != nil {
				return err
			}
			out := multiproposalOutput{Root: root.Hex(), Signature: encodeHex(sig)}
			for i, f := range cctx.Args().Slice() {
				proof, err := mp.InclusionProof(i)
				if err != nil {
					return err
				}
				po := proofOut{File: f, Hash: mp.Hashes[i].Hex(), Proof: []string{}}
				for _, h := range proof {
					po.Proof = append(po.Proof, h.Hex())
				}
				out.Proposals = append(out.Proposals, po)
			}
			return printJSON(cctx, out)
		})
	},
}

var proposalMakeCmd = &cli.Command{
	Name:      "make",
	Usage:     "register a proposal so it can be accepted without a signature",
	ArgsUsage: "<proposal.json>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		from, err := fromAddress(cctx)
		if err != nil {
			return err
		}
		p, err := readProposal(cctx.Args().First())
		if err != nil {
			return err
		}
		return withNode(cctx, func(nd *node.Node) error {
			_, rcpt, err := nd.MakeProposal(cctx.Context, from, p)
			if err != nil {
				return err
			}
			return printReceipt(cctx, rcpt)
		})
	},
}

var proposalStatusCmd = &cli.Command{
	Name:      "status",
	Usage:     "print whether a proposal hash is registered and the credit drawn from it",
	ArgsUsage: "<hash>",
	Action: func(cctx *cli.Context) error {
		hash, err := types.HashFromHex(cctx.Args().First())
		if err != nil {
			return err
		}
		return withNode(cctx, func(nd *node.Node) error {
			made, err := nd.IsProposalMade(cctx.Context, hash)
			if err != nil {
				return err
			}
			used, err := nd.GetCreditUsed(cctx.Context, hash)
			if err != nil {
				return err
			}
			return printJSON(cctx, map[string]interface{}{"made": made, "creditUsed": used})
		})
	},
}

var proposalAcceptCmd = &cli.Command{
	Name:      "accept",
	Usage:     "redeem proposal data as a loan contract and print the resulting terms",
	ArgsUsage: "<hex proposal data>",
	Flags: []cli.Flag{
		fromFlag,
		&cli.StringFlag{
			Name:     "acceptor",
			Usage:    "address accepting the proposal",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "refinancing-loan-id",
			Value: "0",
		},
		&cli.StringFlag{
			Name:  "signature",
			Usage: "hex signature of the proposal or of the multiproposal",
		},
		&cli.StringFlag{
			Name:  "proof",
			Usage: "comma separated inclusion proof, in order",
		},
	},
	Action: func(cctx *cli.Context) error {
		from, err := fromAddress(cctx)
		if err != nil {
			return err
		}
		acceptor, err := parseAddress(cctx.String("acceptor"))
		if err != nil {
			return err
		}
		data, err := decodeHex(cctx.Args().First())
		if err != nil {
			return err
		}
		loanID, err := parseBigInt(cctx.String("refinancing-loan-id"))
		if err != nil {
			return err
		}
		var sig []byte
		if cctx.IsSet("signature") {
			if sig, err = decodeHex(cctx.String("signature")); err != nil {
				return err
			}
		}
		var proof []types.Hash
		for _, s := range splitList(cctx.String("proof")) {
			h, err := types.HashFromHex(s)
			if err != nil {
				return err
			}
			proof = append(proof, h)
		}

		return withNode(cctx, func(nd *node.Node) error {
			hash, terms, _, err := nd.AcceptProposal(cctx.Context, from, proposal.AcceptParams{
				Acceptor:          acceptor,
				RefinancingLoanID: loanID,
				ProposalData:      data,
				InclusionProof:    proof,
				Signature:         sig,
			})
			if err != nil {
				return err
			}
			return printJSON(cctx, struct {
				Hash  types.Hash   `json:"hash"`
				Terms *types.Terms `json:"terms"`
			}{hash, terms})
		})
	},
}

var proposalRevokeNonceCmd = &cli.Command{
	Name:      "revoke-nonce",
	Usage:     "revoke one of the caller's nonces through the proposal authorizer",
	ArgsUsage: "<space> <nonce>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 2 {
			return errors.New("expected a space and a nonce")
		}
		from, err := fromAddress(cctx)
		if err != nil {
			return err
		}
		var vals [2]big.Int
		for i := range vals {
			if vals[i], err = parseBigInt(cctx.Args().Get(i)); err != nil {
				return err
			}
		}
		return withNode(cctx, func(nd *node.Node) error {
			rcpt, err := nd.RevokeProposalNonce(cctx.Context, from, vals[0], vals[1])
			if err != nil {
				return err
			}
			return printReceipt(cctx, rcpt)
		})
	},
}
