// dawg-shell is an interactive client for poking a running worker:
// identifying it, walking a task through setup, and firing split queries.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/EigenDog/dawg/types/msgworker"
	"github.com/EigenDog/dawg/worker/channel"
	"github.com/EigenDog/dawg/worker/client"
	"github.com/abiosoft/ishell/v2"
)

var (
	programLevel = new(slog.LevelVar) // Info by default

	cl *client.Client
)

func main() {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel})
	slog.SetDefault(slog.New(h))

	shell := ishell.New()

	shell.SetHomeHistoryPath(".dawg_shell_history")

	shell.Println("dawg worker shell")

	shell.AddCmd(&ishell.Cmd{
		Name: "debug",
		Help: "set log level to debug",
		Func: func(c *ishell.Context) {
			programLevel.Set(slog.LevelDebug)
		},
	})

	shell.AddCmd(connectCmd())
	shell.AddCmd(identifyCmd())
	shell.AddCmd(queryCmd())
	shell.AddCmd(assignCmd())
	shell.AddCmd(featureCmd())
	shell.AddCmd(finishCmd())
	shell.AddCmd(dropCmd())

	shell.Run()
}

func connected(c *ishell.Context) bool {
	if cl == nil {
		c.Println("not connected; use: connect [host] [port]")
		return false
	}
	return true
}

func connectCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "connect",
		Help: "connect [host] [port]; connect to a worker",
		Func: func(c *ishell.Context) {
			host := "localhost"
			port := uint16(channel.DefaultPort)

			if len(c.Args) > 0 {
				host = c.Args[0]
			}
			if len(c.Args) > 1 {
				p, err := strconv.ParseUint(c.Args[1], 10, 16)
				if err != nil {
					c.Println("bad port:", err)
					return
				}
				port = uint16(p)
			}

			if cl != nil {
				cl.Close()
				cl = nil
			}

			var err error
			cl, err = client.Dial(context.Background(), host, port)
			if err != nil {
				c.Println("connect failed:", err)
				return
			}

			c.Printf("connected to %s:%d\n", host, port)
		},
	}
}

func identifyCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "identify",
		Help: "ask the worker who it is",
		Func: func(c *ishell.Context) {
			if !connected(c) {
				return
			}

			id, err := cl.Identify()
			if err != nil {
				c.Println("identify failed:", err)
				return
			}

			c.Printf("worker %s (user %s)\n", id.WorkerID, id.User)
		},
	}
}

func queryCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "query",
		Help: "query <task-id>; ask for the best split",
		Func: func(c *ishell.Context) {
			if !connected(c) || !wantArgs(c, 1) {
				return
			}

			taskID, err := strconv.ParseUint(c.Args[0], 10, 64)
			if err != nil {
				c.Println("bad task id:", err)
				return
			}

			res, err := cl.QueryBestSplit(taskID)
			if err != nil {
				c.Println("query failed:", err)
				return
			}

			switch res.Outcome {
			case msgworker.OutcomeFound:
				s := res.Split
				c.Printf("found: feature %d, threshold %g, gain %g\n", s.FeatureID, s.Threshold, s.Gain)
			case msgworker.OutcomeNotFound:
				c.Println("no improving split")
			case msgworker.OutcomeBusy:
				c.Printf("busy with task %d\n", res.TaskID)
			case msgworker.OutcomeNotReady:
				c.Println("no task assigned")
			}
		},
	}
}

func assignCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "assign",
		Help: "assign <task-id> <y-feature> [loss] [fold-feature]; start task setup",
		Func: func(c *ishell.Context) {
			if !connected(c) || !wantArgs(c, 2) {
				return
			}

			taskID, err1 := strconv.ParseUint(c.Args[0], 10, 64)
			yID, err2 := strconv.ParseUint(c.Args[1], 10, 32)
			if err1 != nil || err2 != nil {
				c.Println("bad task or feature id")
				return
			}

			req := &msgworker.AssignTask{
				TaskID:     taskID,
				YFeatureID: uint32(yID),
				Loss:       msgworker.LossSquared,
			}

			if len(c.Args) > 2 {
				req.Loss = msgworker.Loss(c.Args[2])
			}
			if len(c.Args) > 3 {
				foldID, err := strconv.ParseUint(c.Args[3], 10, 32)
				if err != nil {
					c.Println("bad fold feature id:", err)
					return
				}
				fold := uint32(foldID)
				req.FoldFeatureID = &fold
			}

			report(c, cl.AssignTask(req))
		},
	}
}

func featureCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "feature",
		Help: "feature <task-id> <feature-id> <v1,v2,...>; send one column",
		Func: func(c *ishell.Context) {
			if !connected(c) || !wantArgs(c, 3) {
				return
			}

			taskID, err1 := strconv.ParseUint(c.Args[0], 10, 64)
			featID, err2 := strconv.ParseUint(c.Args[1], 10, 32)
			if err1 != nil || err2 != nil {
				c.Println("bad task or feature id")
				return
			}

			parts := strings.Split(c.Args[2], ",")
			vals := make([]float64, 0, len(parts))
			for _, p := range parts {
				v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
				if err != nil {
					c.Println("bad value:", err)
					return
				}
				vals = append(vals, v)
			}

			report(c, cl.AddFeature(taskID, uint32(featID), vals))
		},
	}
}

func finishCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "finish",
		Help: "finish <task-id>; complete task setup",
		Func: func(c *ishell.Context) {
			if !connected(c) || !wantArgs(c, 1) {
				return
			}

			taskID, err := strconv.ParseUint(c.Args[0], 10, 64)
			if err != nil {
				c.Println("bad task id:", err)
				return
			}

			report(c, cl.FinishSetup(taskID))
		},
	}
}

func dropCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "drop",
		Help: "drop <task-id>; abandon the current task",
		Func: func(c *ishell.Context) {
			if !connected(c) || !wantArgs(c, 1) {
				return
			}

			taskID, err := strconv.ParseUint(c.Args[0], 10, 64)
			if err != nil {
				c.Println("bad task id:", err)
				return
			}

			report(c, cl.DropTask(taskID))
		},
	}
}

func wantArgs(c *ishell.Context, n int) bool {
	if len(c.Args) < n {
		c.Println("missing arguments; see help")
		return false
	}
	return true
}

func report(c *ishell.Context, err error) {
	if err != nil {
		c.Println(err)
		return
	}
	c.Println("ok")
}
