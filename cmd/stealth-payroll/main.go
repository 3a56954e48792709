package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stealth-payroll/go-backend/internal/crypto"
	"stealth-payroll/go-backend/internal/identity"
	"stealth-payroll/go-backend/internal/ledger"
	"stealth-payroll/go-backend/internal/payload"
	"stealth-payroll/go-backend/internal/payroll"
	"stealth-payroll/go-backend/pkg/models"
)

const (
	exitOK             = 0
	exitInvalidInput   = 10
	exitLedgerFailed   = 20
	exitDecryptFailed  = 30
	exitRateLimited    = 40
	exitInternalFailed = 50
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches one subcommand and returns the process exit code. Commands
// return instead of exiting so their deferred key wipes always run.
func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return exitInvalidInput
	}

	switch args[0] {
	case "keygen":
		return runKeygen(args[1:])
	case "connect":
		return runConnect(args[1:])
	case "encrypt":
		return runEncrypt(args[1:])
	case "decrypt":
		return runDecrypt(args[1:])
	case "send":
		return runSend(args[1:])
	case "inbox":
		return runInbox(args[1:])
	case "history":
		return runHistory(args[1:])
	case "version":
		if _, err := fmt.Fprintf(os.Stdout, "stealth-payroll version=%s commit=%s\n", version, commit); err != nil {
			return exitInternalFailed
		}
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func runKeygen(args []string) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	wallet, err := identity.GenerateAddress()
	if err != nil {
		return fail(err.Error(), exitInternalFailed)
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return fail(err.Error(), exitInternalFailed)
	}
	defer kp.Wipe()
	pub := crypto.EncodeKey(kp.PublicKey)
	return emit(map[string]any{
		"wallet":             wallet,
		"wallet_display":     identity.FormatAddress(wallet),
		"public_key":         pub,
		"public_key_display": crypto.FormatKey(pub),
		"secret_key":         crypto.EncodeKey(kp.SecretKey),
	})
}

func runConnect(args []string) int {
	fs := flag.NewFlagSet("connect", flag.ContinueOnError)
	role := fs.String("role", string(identity.RoleRecipient), "wallet role: sender | recipient")
	mode := fs.String("mode", string(identity.ModeMock), "wallet mode: mock | devnet")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	session, mnemonic, err := identity.Connect(identity.Role(*role), identity.Mode(*mode))
	if err != nil {
		return fail(err.Error(), exitInvalidInput)
	}
	defer session.Disconnect()
	pub, err := session.PublicKeyText()
	if err != nil {
		return fail(err.Error(), exitInternalFailed)
	}
	return emit(map[string]any{
		"address":            session.Address(),
		"display":            identity.FormatAddress(session.Address()),
		"role":               session.Role(),
		"mode":               session.Mode(),
		"public_key":         pub,
		"public_key_display": crypto.FormatKey(pub),
		"mnemonic":           mnemonic,
		"connected_at":       session.ConnectedAt(),
	})
}

func runEncrypt(args []string) int {
	fs := flag.NewFlagSet("encrypt", flag.ContinueOnError)
	publicKey := fs.String("public-key", "", "recipient encryption public key (base64)")
	recipient := fs.String("recipient", "", "recipient identifier")
	draft := draftFlags(fs)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	pub, err := crypto.DecodeKey(*publicKey)
	if err != nil {
		return fail(crypto.UserMessage(err), exitInvalidInput)
	}
	env, err := crypto.Encrypt(models.PayrollRecord{
		RecipientIdentifier: strings.TrimSpace(*recipient),
		Amount:              draft.Amount,
		Currency:            draft.Currency,
		Period:              draft.Period,
		Notes:               draft.Notes,
		Timestamp:           time.Now().UnixMilli(),
	}, pub)
	if err != nil {
		return fail(err.Error(), exitCodeFor(err))
	}
	blob, err := crypto.MarshalEnvelope(env)
	if err != nil {
		return fail(err.Error(), exitInternalFailed)
	}
	if _, err := fmt.Fprintln(os.Stdout, string(blob)); err != nil {
		return exitInternalFailed
	}
	return exitOK
}

func runDecrypt(args []string) int {
	fs := flag.NewFlagSet("decrypt", flag.ContinueOnError)
	secretKey := fs.String("secret-key", os.Getenv("PAYROLL_SECRET_KEY"), "recipient encryption secret key (base64)")
	in := fs.String("in", "-", "envelope file, - for stdin")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	sk, err := crypto.DecodeKey(*secretKey)
	if err != nil {
		return fail("secret key: "+err.Error(), exitInvalidInput)
	}
	defer clear(sk[:])
	blob, err := readInput(*in)
	if err != nil {
		return fail(err.Error(), exitInvalidInput)
	}
	env, err := crypto.ParseEnvelope(blob)
	if err != nil {
		return fail(describe(err), exitCodeFor(err))
	}
	record, err := crypto.Decrypt(env, sk)
	if err != nil {
		return fail(describe(err), exitCodeFor(err))
	}
	return emit(record)
}

func runSend(args []string) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to payroll.yaml (optional)")
	mnemonic := fs.String("mnemonic", os.Getenv("PAYROLL_MNEMONIC"), "sender wallet mnemonic")
	to := fs.String("to", "", "recipient wallet address")
	publicKey := fs.String("public-key", "", "recipient encryption public key (base64)")
	draft := draftFlags(fs)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	rt, err := newRuntime(*configPath)
	if err != nil {
		return fail(err.Error(), exitCodeFor(err))
	}
	sender, err := restoreSession(*mnemonic, identity.RoleSender, rt.mode())
	if err != nil {
		return fail(err.Error(), exitInvalidInput)
	}
	defer sender.Disconnect()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	entry, err := rt.payroll.Create(ctx, sender, *to, *publicKey, *draft)
	rt.flushMetrics()
	if err != nil {
		return fail(err.Error(), exitCodeFor(err))
	}
	out := map[string]any{"entry": entry}
	if entry.Receipt != nil {
		out["explorer_url"] = ledger.ExplorerURL(entry.Receipt.Signature, rt.mode() == identity.ModeDevnet)
	}
	return emit(out)
}

func runInbox(args []string) int {
	fs := flag.NewFlagSet("inbox", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to payroll.yaml (optional)")
	mnemonic := fs.String("mnemonic", os.Getenv("PAYROLL_MNEMONIC"), "recipient wallet mnemonic")
	signature := fs.String("signature", "", "open a single transaction instead of the whole inbox")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	rt, err := newRuntime(*configPath)
	if err != nil {
		return fail(err.Error(), exitCodeFor(err))
	}
	recipient, err := restoreSession(*mnemonic, identity.RoleRecipient, rt.mode())
	if err != nil {
		return fail(err.Error(), exitInvalidInput)
	}
	defer recipient.Disconnect()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sig := strings.TrimSpace(*signature); sig != "" {
		record, err := rt.payroll.Open(ctx, recipient, sig)
		rt.flushMetrics()
		if err != nil {
			return fail(describe(err), exitCodeFor(err))
		}
		return emit(record)
	}

	slips, err := rt.payroll.Inbox(ctx, recipient)
	rt.flushMetrics()
	if err != nil {
		return fail(err.Error(), exitCodeFor(err))
	}
	out := make([]map[string]any, 0, len(slips))
	for _, slip := range slips {
		item := map[string]any{
			"signature": slip.Receipt.Signature,
			"from":      slip.Receipt.From,
			"timestamp": slip.Receipt.Timestamp,
		}
		if slip.Err != nil {
			item["error"] = describe(slip.Err)
		} else {
			item["record"] = slip.Record
		}
		out = append(out, item)
	}
	return emit(out)
}

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to payroll.yaml (optional)")
	wallet := fs.String("wallet", "", "only transfers from or to this wallet")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	rt, err := newRuntime(*configPath)
	if err != nil {
		return fail(err.Error(), exitCodeFor(err))
	}
	ctx := context.Background()
	var receipts []models.Receipt
	if w := strings.TrimSpace(*wallet); w != "" {
		receipts, err = rt.ledger.ForWallet(ctx, w)
	} else {
		receipts, err = rt.ledger.All(ctx)
	}
	if err != nil {
		return fail(err.Error(), exitLedgerFailed)
	}
	return emit(receipts)
}

func draftFlags(fs *flag.FlagSet) *payroll.Draft {
	d := &payroll.Draft{}
	fs.Float64Var(&d.Amount, "amount", 0, "payment amount")
	fs.StringVar(&d.Currency, "currency", "USDC", "currency code")
	fs.StringVar(&d.Period, "period", "", "pay period label, e.g. \"January 2026\"")
	fs.StringVar(&d.Notes, "notes", "", "optional notes")
	return d
}

// parseFlags reports ok=false with the exit code to return when parsing
// stopped; flag has already printed the reason.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	err := fs.Parse(args)
	switch {
	case err == nil:
		return exitOK, true
	case errors.Is(err, flag.ErrHelp):
		return exitOK, false
	default:
		return exitInvalidInput, false
	}
}

func restoreSession(mnemonic string, role identity.Role, mode identity.Mode) (*identity.Session, error) {
	if strings.TrimSpace(mnemonic) == "" {
		return nil, errors.New("mnemonic is required (--mnemonic or PAYROLL_MNEMONIC)")
	}
	return identity.Restore(mnemonic, role, mode)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, crypto.ErrDecryptionFailed),
		errors.Is(err, crypto.ErrInvalidEnvelope),
		errors.Is(err, payload.ErrMalformedPayload):
		return exitDecryptFailed
	case errors.Is(err, crypto.ErrInvalidKeyEncoding),
		errors.Is(err, crypto.ErrInvalidPublicKey),
		errors.Is(err, payload.ErrInvalidRecord),
		errors.Is(err, payroll.ErrRecipientMissing),
		errors.Is(err, identity.ErrInvalidMode):
		return exitInvalidInput
	case errors.Is(err, payroll.ErrRateLimited):
		return exitRateLimited
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrInvalidTransfer),
		errors.Is(err, context.Canceled):
		return exitLedgerFailed
	default:
		return exitInternalFailed
	}
}

// describe shows decryption-class failures in their user-facing form and
// everything else as is.
func describe(err error) string {
	if exitCodeFor(err) == exitDecryptFailed {
		return crypto.UserMessage(err)
	}
	return err.Error()
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func emit(v any) int {
	if err := printJSON(v); err != nil {
		return fail(err.Error(), exitInternalFailed)
	}
	return exitOK
}

func fail(line string, exitCode int) int {
	_, _ = fmt.Fprintln(os.Stderr, line)
	return exitCode
}

func printUsage() {
	lines := []string{
		"stealth-payroll <command> [flags]",
		"commands:",
		"  keygen",
		"  connect  [--role sender|recipient] [--mode mock|devnet]",
		"  encrypt  --public-key <b64> --recipient <id> --amount n --period <label> [--currency c] [--notes text]",
		"  decrypt  --secret-key <b64> [--in file]",
		"  send     --mnemonic <words> --to <wallet> --public-key <b64> --amount n --period <label> [--currency c] [--notes text] [--config path]",
		"  inbox    --mnemonic <words> [--signature sig] [--config path]",
		"  history  [--wallet address] [--config path]",
		"  version",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(os.Stdout, line); err != nil {
			return
		}
	}
}
