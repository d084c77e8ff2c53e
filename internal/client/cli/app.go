package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dmitrijs2005/whistles/internal/client/client"
	"github.com/dmitrijs2005/whistles/internal/client/config"
)

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"status":     {"status", (*App).status},
	"permission": {"permission <fid>", (*App).permission},
	"earliest":   {"earliest [partition flags]", (*App).earliest},
	"put":        {"put -fid N -ts MILLIS -hash 0x.. -text T [-hashed HEX]", (*App).put},
	"list":       {"list -fid N [-limit N] [-desc] [-cursor C] [partition flags]", (*App).list},
	"get":        {"get -id MESSAGE_ID [partition flags]", (*App).get},
	"find":       {"find -fid N (-text T | -hashed HEX) [partition flags]", (*App).find},
	"reveal":     {"reveal -cast 0x.. [-viewer FID] [partition flags]", (*App).reveal},
	"prune":      {"prune [partition flags]", (*App).prune},
	"channels":   {"channels", (*App).channels},
	"enable":     {"enable -channel ID -url PARENT_URL", (*App).enable},
	"disable":    {"disable -channel ID", (*App).disable},
	"export":     {"export [partition flags]", (*App).export},
	"import":     {"import -file DUMP.jsonl", (*App).importDump},
	"token":      {"token -role service|client [-ttl 24h]", (*App).token},
}

type App struct {
	config *config.Config
	client client.Client
	out    io.Writer
	prompt io.Writer
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewWhistlesClient(c.ServerEndpointAddr, c.Token)
	if err != nil {
		return nil, err
	}
	return &App{config: c, client: apiClient, out: os.Stdout, prompt: os.Stderr, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "usage: whistles-cli [-a addr] [-t token] [-i seconds] <command> [flags]")
	fmt.Fprintln(a.out, "commands:")
	for _, name := range names {
		fmt.Fprintln(a.out, "  "+commands[name].usage)
	}
	fmt.Fprintln(a.out, "partition flags: -salt S -shift N -ask-secret")
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.client.Close()

	if len(args) == 0 || args[0] == "help" {
		a.usage()
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	return cmd.run(a, ctx, args[1:])
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
