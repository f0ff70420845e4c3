// Command owl-login is an interactive Owl client for testing against
// owl-authd.
//
// Usage:
//
//	owl-login [flags]
//
// Flags:
//
//	-server string     Server address host:port (default: none; set it with discover or connect)
//	-curve string      Curve: P256, P384, P521, FourQ (default "P256")
//	-server-id string  Server identity string (default "owl-authd.local")
//
// Interactive commands:
//
//	discover                  find owl-authd servers via mDNS
//	connect <host:port>       set the server address
//	register <user> <pass>    register a new account
//	login <user> <pass>       authenticate and print the session key digest
//	help                      show available commands
//	quit                      exit
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/enbility/zeroconf/v3"

	"github.com/owl-protocol/owl-go/internal/demowire"
	"github.com/owl-protocol/owl-go/pkg/curve"
	"github.com/owl-protocol/owl-go/pkg/owl"
	"github.com/owl-protocol/owl-go/pkg/wire"
)

// cli holds the interactive session state.
type cli struct {
	config owl.Config
	group  curve.Group
	server string
	out    io.Writer
}

func main() {
	server := flag.String("server", "", "server address host:port")
	curveName := flag.String("curve", "P256", "curve: P256, P384, P521, FourQ")
	serverID := flag.String("server-id", "owl-authd.local", "server identity string")
	flag.Parse()

	curveID, err := curve.ParseID(*curveName)
	if err != nil {
		fmt.Println(err)
		return
	}
	group, _ := curve.New(curveID)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "owl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer rl.Close()

	c := &cli{
		config: owl.Config{Curve: curveID, ServerID: *serverID},
		group:  group,
		server: *server,
		out:    rl.Stdout(),
	}

	fmt.Fprintf(c.out, "owl-login (%s, server id %q)\n", curveID, *serverID)
	c.printHelp()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "quit", "exit":
			return
		case "help":
			c.printHelp()
		case "discover":
			c.discover()
		case "connect":
			if len(parts) != 2 {
				fmt.Fprintln(c.out, "usage: connect <host:port>")
				continue
			}
			c.server = parts[1]
			fmt.Fprintf(c.out, "server set to %s\n", c.server)
		case "register":
			if len(parts) != 3 {
				fmt.Fprintln(c.out, "usage: register <user> <pass>")
				continue
			}
			c.register(parts[1], parts[2])
		case "login":
			if len(parts) != 3 {
				fmt.Fprintln(c.out, "usage: login <user> <pass>")
				continue
			}
			c.login(parts[1], parts[2])
		default:
			fmt.Fprintf(c.out, "unknown command %q (try help)\n", parts[0])
		}
	}
}

func (c *cli) printHelp() {
	fmt.Fprintln(c.out, "commands:")
	fmt.Fprintln(c.out, "  discover                find owl-authd servers via mDNS")
	fmt.Fprintln(c.out, "  connect <host:port>     set the server address")
	fmt.Fprintln(c.out, "  register <user> <pass>  register a new account")
	fmt.Fprintln(c.out, "  login <user> <pass>     authenticate")
	fmt.Fprintln(c.out, "  quit                    exit")
}

// discover browses for owl-authd instances, lists them, and picks the
// first one found if no server is set yet.
func (c *cli) discover() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	go func() {
		_ = zeroconf.Browse(ctx, demowire.ServiceType, demowire.Domain, entries, removed)
	}()

	var in <-chan *zeroconf.ServiceEntry = entries
	var rm <-chan *zeroconf.ServiceEntry = removed
	found := 0
	for {
		select {
		case entry, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			if entry == nil {
				continue
			}
			found++
			addr := fmt.Sprintf("%s:%d", entry.HostName, entry.Port)
			if len(entry.AddrIPv4) > 0 {
				addr = fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port)
			}
			fmt.Fprintf(c.out, "found %s at %s %v\n", entry.Instance, addr, entry.Text)
			if c.server == "" {
				c.server = addr
				fmt.Fprintf(c.out, "server set to %s\n", c.server)
			}
		case _, ok := <-rm:
			if !ok {
				rm = nil
			}
		case <-ctx.Done():
			if found == 0 {
				fmt.Fprintln(c.out, "no servers found")
			}
			return
		}
	}
}

func (c *cli) dial() (net.Conn, error) {
	if c.server == "" {
		return nil, fmt.Errorf("no server set (use discover or connect)")
	}
	return net.DialTimeout("tcp", c.server, 5*time.Second)
}

// roundTrip sends one envelope and reads one response.
func roundTrip(conn net.Conn, env *demowire.Envelope) (*demowire.Envelope, error) {
	if err := demowire.WriteFrame(conn, env); err != nil {
		return nil, err
	}
	resp, err := demowire.ReadFrame(conn, demowire.DefaultMaxFrameSize)
	if err != nil {
		return nil, err
	}
	if resp.Type == demowire.TypeError {
		return nil, fmt.Errorf("server: %s", resp.Message)
	}
	return resp, nil
}

func (c *cli) register(username, password string) {
	client, err := owl.NewClient(c.config)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	reg, err := client.Register(username, password)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	payload, err := wire.EncodeRegistrationRequest(reg)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	conn, err := c.dial()
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	defer conn.Close()

	if _, err := roundTrip(conn, &demowire.Envelope{Type: demowire.TypeRegister, Payload: payload}); err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	fmt.Fprintf(c.out, "registered %q\n", username)
}

func (c *cli) login(username, password string) {
	client, err := owl.NewClient(c.config)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	initReq, err := client.AuthInit(username, password)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	initPayload, err := wire.EncodeAuthInitRequest(initReq)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	conn, err := c.dial()
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	defer conn.Close()

	// Flow 1 → flow 2.
	resp, err := roundTrip(conn, &demowire.Envelope{
		Type:     demowire.TypeAuthInit,
		Username: username,
		Payload:  initPayload,
	})
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	initResp, err := wire.DecodeAuthInitResponse(resp.Payload, c.group)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	finish, err := client.AuthFinish(initResp)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	finishPayload, err := wire.EncodeAuthFinishRequest(finish.FinishRequest)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	// Flow 3 → server confirmation.
	okResp, err := roundTrip(conn, &demowire.Envelope{
		Type:     demowire.TypeAuthFinish,
		Username: username,
		Session:  resp.Session,
		Payload:  finishPayload,
	})
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	if !owl.VerifyKeyConfirmation(okResp.Payload, finish.KCTest) {
		fmt.Fprintln(c.out, "server confirmation tag mismatch; discarding key")
		return
	}

	digest := sha256.Sum256(finish.Key)
	fmt.Fprintf(c.out, "login ok; session key digest %x\n", digest[:8])
}
