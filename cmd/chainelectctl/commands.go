// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/danielhkuo/chainelect/auth"
	"github.com/danielhkuo/chainelect/client"
	"github.com/danielhkuo/chainelect/election"
)

const requestTimeout = 30 * time.Second

func newClient(c *cli.Context) *client.Client {
	cl := client.New(c.GlobalString("server"))
	if addr := c.GlobalString("address"); addr != "" {
		cl = cl.WithCaller(addr, c.GlobalString("key"))
	}
	return cl
}

func electionID(c *cli.Context) (string, error) {
	id := c.GlobalString("election")
	if id == "" {
		return "", errors.New("an election id is required (use --election or CHAINELECT_ELECTION)")
	}
	return id, nil
}

func requireCaller(c *cli.Context) error {
	if c.GlobalString("address") == "" || c.GlobalString("key") == "" {
		return errors.New("caller credentials are required (use --address and --key)")
	}
	return nil
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func keyCommand() cli.Command {
	return cli.Command{
		Name:      "key",
		Usage:     "derive the caller key for an address",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:   "salt",
				Usage:  "server caller key `<salt>`",
				EnvVar: "CALLER_KEY_SALT",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.ShowCommandHelp(c, "key")
			}
			salt := c.String("salt")
			if salt == "" {
				return errors.New("--salt or CALLER_KEY_SALT is required")
			}
			addr, err := auth.NormalizeAddress(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, auth.GenerateCallerKey(addr, salt))
			return nil
		},
	}
}

func createCommand() cli.Command {
	return cli.Command{
		Name:  "create",
		Usage: "create an election owned by the caller",
		Flags: []cli.Flag{
			cli.DurationFlag{
				Name:  "duration, d",
				Usage: "voting `<duration>`, server default when unset",
			},
		},
		Action: func(c *cli.Context) error {
			id, err := electionID(c)
			if err != nil {
				return err
			}
			if err := requireCaller(c); err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			resp, err := newClient(c).CreateElection(ctx, id, c.Duration("duration"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "election %s created by %s\n", resp.ElectionID, resp.Deployer)
			return nil
		},
	}
}

func statusCommand() cli.Command {
	return cli.Command{
		Name:  "status",
		Usage: "show an election's phase, window and tally",
		Action: func(c *cli.Context) error {
			id, err := electionID(c)
			if err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			st, err := newClient(c).Status(ctx, id)
			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "election:   %s\n", st.ElectionID)
			fmt.Fprintf(w, "deployer:   %s\n", st.Deployer)
			fmt.Fprintf(w, "phase:      %s\n", st.Phase)
			fmt.Fprintf(w, "duration:   %s\n", time.Duration(st.DurationSeconds)*time.Second)
			if st.VotingStarted {
				end := time.Unix(st.VotingEndTime, 0)
				fmt.Fprintf(w, "ends:       %s (%s)\n", end.UTC().Format(time.RFC3339), humanize.Time(end))
				fmt.Fprintf(w, "remaining:  %ds\n", st.RemainingTime)
			}
			fmt.Fprintf(w, "candidates: %d\n", st.CandidatesCount)
			fmt.Fprintf(w, "votes:      %s\n", humanize.Comma(int64(st.TotalVotes)))
			return nil
		},
	}
}

func candidatesCommand() cli.Command {
	return cli.Command{
		Name:  "candidates",
		Usage: "list candidates with their vote counts",
		Action: func(c *cli.Context) error {
			id, err := electionID(c)
			if err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			list, err := newClient(c).Candidates(ctx, id)
			if err != nil {
				return err
			}
			for _, cand := range list {
				fmt.Fprintf(c.App.Writer, "%3d  %-24s %s\n", cand.ID, cand.Name, humanize.Comma(int64(cand.VoteCount)))
			}
			return nil
		},
	}
}

func addAdminCommand() cli.Command {
	return cli.Command{
		Name:      "add-admin",
		Usage:     "grant admin rights to an address",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.ShowCommandHelp(c, "add-admin")
			}
			id, err := electionID(c)
			if err != nil {
				return err
			}
			if err := requireCaller(c); err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			if err := newClient(c).AddAdmin(ctx, id, c.Args().First()); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "admin %s added\n", c.Args().First())
			return nil
		},
	}
}

func addCandidateCommand() cli.Command {
	return cli.Command{
		Name:      "add-candidate",
		Usage:     "add a candidate before voting starts",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.ShowCommandHelp(c, "add-candidate")
			}
			id, err := electionID(c)
			if err != nil {
				return err
			}
			if err := requireCaller(c); err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			cand, err := newClient(c).AddCandidate(ctx, id, c.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "candidate %d: %s\n", cand.ID, cand.Name)
			return nil
		},
	}
}

func startCommand() cli.Command {
	return cli.Command{
		Name:  "start",
		Usage: "open voting for the configured duration",
		Action: func(c *cli.Context) error {
			id, err := electionID(c)
			if err != nil {
				return err
			}
			if err := requireCaller(c); err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			st, err := newClient(c).StartVoting(ctx, id)
			if err != nil {
				return err
			}
			end := time.Unix(st.VotingEndTime, 0)
			fmt.Fprintf(c.App.Writer, "voting open until %s (%s)\n", end.UTC().Format(time.RFC3339), humanize.Time(end))
			return nil
		},
	}
}

func resetCommand() cli.Command {
	return cli.Command{
		Name:  "reset",
		Usage: "clear the clock and vote records for a new cycle",
		Action: func(c *cli.Context) error {
			id, err := electionID(c)
			if err != nil {
				return err
			}
			if err := requireCaller(c); err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			st, err := newClient(c).ResetVotingState(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "election %s reset, %d candidates kept\n", st.ElectionID, st.CandidatesCount)
			return nil
		},
	}
}

func voteCommand() cli.Command {
	return cli.Command{
		Name:      "vote",
		Usage:     "cast the caller's vote",
		ArgsUsage: "<candidate-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.ShowCommandHelp(c, "vote")
			}
			cid, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return fmt.Errorf("candidate id must be an integer: %w", err)
			}
			id, err := electionID(c)
			if err != nil {
				return err
			}
			if err := requireCaller(c); err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			err = newClient(c).Vote(ctx, id, cid)
			if errors.Is(err, election.ErrAlreadyVoted) {
				return errors.New("this address has already voted in the current cycle")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "vote recorded for candidate %d\n", cid)
			return nil
		},
	}
}

func registerCommand() cli.Command {
	return cli.Command{
		Name:      "register",
		Usage:     "register a voter account",
		ArgsUsage: "<voter-id> <address> <password>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 3 {
				return cli.ShowCommandHelp(c, "register")
			}
			ctx, cancel := timeout()
			defer cancel()

			args := c.Args()
			resp, err := newClient(c).RegisterVoter(ctx, args.Get(0), args.Get(1), args.Get(2))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "address: %s\nkey:     %s\n", resp.Address, resp.CallerKey)
			return nil
		},
	}
}

func loginCommand() cli.Command {
	return cli.Command{
		Name:      "login",
		Usage:     "exchange voter credentials for a caller key",
		ArgsUsage: "<voter-id> <password>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.ShowCommandHelp(c, "login")
			}
			ctx, cancel := timeout()
			defer cancel()

			resp, err := newClient(c).Login(ctx, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "address: %s\nkey:     %s\n", resp.Address, resp.CallerKey)
			return nil
		},
	}
}

func eventsCommand() cli.Command {
	return cli.Command{
		Name:  "events",
		Usage: "print the event journal",
		Flags: []cli.Flag{
			cli.Int64Flag{
				Name:  "after",
				Usage: "only events after `<seq>`",
			},
			cli.IntFlag{
				Name:  "limit, n",
				Usage: "at most `<count>` events",
			},
		},
		Action: func(c *cli.Context) error {
			id, err := electionID(c)
			if err != nil {
				return err
			}
			ctx, cancel := timeout()
			defer cancel()

			events, err := newClient(c).Events(ctx, id, c.Int64("after"), c.Int("limit"))
			if err != nil {
				return err
			}
			for _, ev := range events {
				printEvent(c.App.Writer, ev)
			}
			return nil
		},
	}
}

func watchCommand() cli.Command {
	return cli.Command{
		Name:  "watch",
		Usage: "follow the live event feed until interrupted",
		Flags: []cli.Flag{
			cli.Int64Flag{
				Name:  "after",
				Usage: "replay events after `<seq>` first",
			},
		},
		Action: func(c *cli.Context) error {
			id, err := electionID(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = newClient(c).Stream(ctx, id, c.Int64("after"), func(ev election.Event) error {
				printEvent(c.App.Writer, ev)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func printEvent(w io.Writer, ev election.Event) {
	fmt.Fprintf(w, "%4d  %-16s %s", ev.Seq, ev.Kind, ev.Actor)
	switch ev.Kind {
	case election.KindVoteCast:
		fmt.Fprintf(w, " -> %d", ev.CandidateID)
	case election.KindVotingStarted:
		fmt.Fprintf(w, " until %s", humanize.Time(time.Unix(ev.EndTime, 0)))
	default:
		if ev.Subject != "" {
			fmt.Fprintf(w, " %s", ev.Subject)
		}
	}
	fmt.Fprintln(w)
}
