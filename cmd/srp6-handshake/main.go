// Command srp6-handshake runs an SRP-6 handshake between a client and
// a server in the same process, and prints the messages they exchange.
//
// 	srp6-handshake -user alice -password secret
// 	srp6-handshake -password secret -server-password other   # fails
package main

import (
	"crypto"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/posterity/srp6"
	"github.com/posterity/srp6/internal/exchange"
)

// errAuthFailed is returned when either peer rejects the other's proof.
var errAuthFailed = errors.New("authentication failed")

type options struct {
	user           string
	password       string
	serverPassword string
	group          string
	hash           string
}

func main() {
	var (
		opts    options
		verbose bool
	)
	flag.StringVar(&opts.user, "user", "alice", "username")
	flag.StringVar(&opts.password, "password", "password123", "password typed by the client")
	flag.StringVar(&opts.serverPassword, "server-password", "", "password the server's verifier was made from (defaults to -password)")
	flag.StringVar(&opts.group, "group", "2048", "RFC 5054 group used for the key agreement (1024, 2048)")
	flag.StringVar(&opts.hash, "hash", "SHA-256", "hash function of the evidence messages")
	flag.BoolVar(&verbose, "v", false, "log every step")
	flag.Parse()

	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if opts.serverPassword == "" {
		opts.serverPassword = opts.password
	}

	if err := run(opts); err != nil {
		log.WithError(err).Error("handshake failed")
		os.Exit(1)
	}
}

func run(opts options) error {
	group, ok := exchange.Groups[opts.group]
	if !ok {
		return fmt.Errorf("unknown group %q", opts.group)
	}
	h, err := srp6.ParseHash(opts.hash)
	if err != nil {
		return err
	}
	logger := log.WithFields(log.Fields{"user": opts.user, "group": group.Name, "hash": srp6.HashName(h)})

	// Registration: the server only ever sees the verifier record.
	record, err := exchange.ComputeVerifier(group, opts.user, opts.serverPassword, exchange.NewSalt(16))
	if err != nil {
		return fmt.Errorf("failed to compute verifier: %w", err)
	}
	logger.Debug("verifier record created")

	// Key agreement.
	kc, err := exchange.NewClient(group, opts.user, opts.password, record.Salt())
	if err != nil {
		return err
	}
	ks, err := exchange.NewServer(group, record)
	if err != nil {
		return err
	}
	fmt.Printf("Client: I, A --> server\n   A = %x\n", srp6.Encode(kc.A()))
	fmt.Printf("Server: s, B --> client\n   s = %x\n   B = %x\n", ks.Salt(), srp6.Encode(ks.B()))

	clientS, err := kc.Secret(ks.B())
	if err != nil {
		return fmt.Errorf("client key agreement: %w", err)
	}
	serverS, err := ks.Secret(kc.A())
	if err != nil {
		return fmt.Errorf("server key agreement: %w", err)
	}
	logger.Debug("shared secrets computed")

	client, err := newClient(h, kc.A(), ks.B(), clientS)
	if err != nil {
		return err
	}
	server, err := newServer(h, kc.A(), ks.B(), serverS)
	if err != nil {
		return err
	}

	// Evidence exchange.
	M1, err := client.CalculateClientEvidenceMessage()
	if err != nil {
		return err
	}
	fmt.Printf("Client: M1 --> server\n   M1 = %x\n", srp6.Encode(M1))

	ok, err = server.VerifyClientEvidenceMessage(srp6.Decode(srp6.Encode(M1)))
	if err != nil {
		return err
	}
	logger.WithField("state", server.State()).Debug("server checked M1")
	if !ok {
		return fmt.Errorf("%w: server rejected M1", errAuthFailed)
	}

	M2, err := server.CalculateServerEvidenceMessage()
	if err != nil {
		return err
	}
	fmt.Printf("Server: M2 --> client\n   M2 = %x\n", srp6.Encode(M2))

	ok, err = client.VerifyServerEvidenceMessage(srp6.Decode(srp6.Encode(M2)))
	if err != nil {
		return err
	}
	logger.WithField("state", client.State()).Debug("client checked M2")
	if !ok {
		return fmt.Errorf("%w: client rejected M2", errAuthFailed)
	}

	clientKey, err := client.CalculateSessionKey()
	if err != nil {
		return err
	}
	serverKey, err := server.CalculateSessionKey()
	if err != nil {
		return err
	}
	if clientKey.Cmp(serverKey) != 0 {
		return errors.New("session keys are different")
	}

	fmt.Printf("Client Key: %x\nServer Key: %x\n", srp6.Encode(clientKey), srp6.Encode(serverKey))
	logger.Info("mutual authentication succeeded")
	return nil
}

func newClient(h crypto.Hash, A, B, S *big.Int) (*srp6.Client, error) {
	c, err := srp6.NewClient(h)
	if err != nil {
		return nil, err
	}
	for _, err := range []error{c.SetA(A), c.SetB(B), c.SetS(S)} {
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newServer(h crypto.Hash, A, B, S *big.Int) (*srp6.Server, error) {
	s, err := srp6.NewServer(h)
	if err != nil {
		return nil, err
	}
	for _, err := range []error{s.SetA(A), s.SetB(B), s.SetS(S)} {
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
