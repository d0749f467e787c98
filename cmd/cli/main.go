// Command amctl is a CLI client for the account-manager service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	grpcinsecure "google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/and161185/account-manager/internal/api"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken      string    `json:"access_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitempty"`
	UserID           string    `json:"user_id"`
}

// errAccessExpired means the access token is stale but the refresh token may still work.
var errAccessExpired = errors.New("access token expired")

func (tf tokenFile) canRefresh(now time.Time) bool {
	return tf.RefreshToken != "" && now.Before(tf.RefreshExpiresAt)
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "account-manager")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "account-manager")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tf tokenFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadToken() (tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tokenFile{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return tokenFile{}, err
	}
	if tf.AccessToken == "" || tf.UserID == "" {
		return tokenFile{}, errors.New("no valid token (login required)")
	}
	if now := time.Now(); now.After(tf.ExpiresAt) {
		if tf.canRefresh(now) {
			return tf, errAccessExpired
		}
		return tokenFile{}, errors.New("session expired (login required)")
	}
	return tf, nil
}

// ---- grpc dial ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

// conn holds the transport settings shared by all commands.
type conn struct {
	addr      string
	caPath    string
	insecure  bool
	plaintext bool
}

func loadTLS(caPath string, insecure bool) (credentials.TransportCredentials, error) {
	if insecure {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

func (c conn) dial(ctx context.Context, bearer string) (*grpc.ClientConn, *api.Client, error) {
	creds := grpcinsecure.NewCredentials()
	if !c.plaintext {
		var err error
		if creds, err = loadTLS(c.caPath, c.insecure); err != nil {
			return nil, nil, err
		}
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if bearer != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer, secure: !c.plaintext}))
	}
	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	cc, err := grpc.DialContext(ctx, c.addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return cc, api.NewClient(cc), nil
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `amctl CLI
Usage:
  amctl -addr HOST:PORT [-cacert file | -insecure | -plaintext] <cmd> [args]

Commands:
  version
  keygen                                           (prints a new ENCRYPTION_KEY)
  register   -e <email> -p <password> [-username u -first f -last l]
  login      -e <email> -p <password>              (saves token)
  refresh                                          (renews the access token)
  whoami
  projects   list | add -title t [-desc d] | show -slug s
             | edit -slug s [-title t -desc d -active bool] | rm -slug s
  creds      list -slug s | add -slug s -email e -service n (-p pw | -p-file f) [-username -phone -url]
             | show -slug s -id n | edit -slug s -id n [...] | rm -slug s -id n
  tasks      list -slug s | add -slug s -title t [-desc d -remind RFC3339]
             | show -slug s -id n | edit -slug s -id n [...] | rm -slug s -id n
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands and configures TLS/auth for RPC calls.
func main() {
	// global flags
	addr := flag.String("addr", "localhost:8443", "server addr")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	insecure := flag.Bool("insecure", false, "skip cert verify (dev)")
	plaintext := flag.Bool("plaintext", false, "no TLS (dev servers without -tls-cert)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	c := conn{addr: *addr, caPath: *caPath, insecure: *insecure, plaintext: *plaintext}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	switch cmd {
	case "version":
		fmt.Printf("amctl %s (%s)\n", version, buildDate)
	case "keygen":
		cmdKeygen()
	case "register":
		cmdRegister(c, args)
	case "login":
		cmdLogin(c, args)
	case "refresh":
		cmdRefresh(c)
	case "whoami":
		cmdWhoami(c)
	case "projects":
		cmdProjects(c, args)
	case "creds":
		cmdCreds(c, args)
	case "tasks":
		cmdTasks(c, args)
	default:
		usage()
	}
}

// ---- helpers ----

func tsString(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func fail(err error) {
	if s, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "rpc error: code=%s msg=%s\n", s.Code(), s.Message())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func need(ok bool, msg string) {
	if !ok {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}

// subcommand splits "projects list ..." into the action and its flags.
func subcommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		usage()
	}
	return args[0], args[1:]
}
