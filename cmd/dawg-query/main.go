// dawg-query sends a single request to a running worker and prints the
// reply.
//
//	dawg-query identify
//	dawg-query query <task-id>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/EigenDog/dawg/types/msgworker"
	"github.com/EigenDog/dawg/worker/channel"
	"github.com/EigenDog/dawg/worker/client"
)

var (
	host    = flag.String("a", "localhost", "worker host")
	port    = flag.Int("p", channel.DefaultPort, "worker port")
	timeout = flag.Duration("t", 10*time.Second, "request timeout")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: dawg-query [flags] identify | query <task-id>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := client.Dial(ctx, *host, uint16(*port))
	if err != nil {
		log.Fatalf("query: could not reach worker: %s", err)
	}
	defer c.Close()

	switch flag.Arg(0) {
	case "identify":
		id, err := c.Identify()
		if err != nil {
			log.Fatalf("query: %s", err)
		}
		fmt.Printf("worker %s (user %s)\n", id.WorkerID, id.User)

	case "query":
		if flag.NArg() < 2 {
			log.Fatalf("query: missing task id")
		}
		taskID, err := strconv.ParseUint(flag.Arg(1), 10, 64)
		if err != nil {
			log.Fatalf("query: bad task id %q: %s", flag.Arg(1), err)
		}

		res, err := c.QueryBestSplit(taskID)
		if err != nil {
			log.Fatalf("query: %s", err)
		}
		printResult(res)

	default:
		log.Fatalf("query: unknown command %q", flag.Arg(0))
	}
}

func printResult(res *msgworker.BestSplitResult) {
	switch res.Outcome {
	case msgworker.OutcomeFound:
		s := res.Split
		fmt.Printf("found: feature %d, threshold %g, gain %g (left %g, right %g)\n",
			s.FeatureID, s.Threshold, s.Gain, s.LeftValue, s.RightValue)
	case msgworker.OutcomeNotFound:
		fmt.Println("no improving split")
	case msgworker.OutcomeBusy:
		fmt.Printf("busy with task %d\n", res.TaskID)
	case msgworker.OutcomeNotReady:
		fmt.Println("no task assigned")
	}
}
