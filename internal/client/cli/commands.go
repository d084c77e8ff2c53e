package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/whistles/internal/client/client"
	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/cryptox"
	pb "github.com/dmitrijs2005/whistles/internal/proto"
	"github.com/dmitrijs2005/whistles/internal/server/auth"
	"github.com/dmitrijs2005/whistles/internal/server/backup"
	"github.com/dmitrijs2005/whistles/internal/server/models"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

type partitionFlags struct {
	salt      string
	shift     string
	askSecret bool
}

func addPartitionFlags(fs *flag.FlagSet) *partitionFlags {
	pf := &partitionFlags{}
	fs.StringVar(&pf.salt, "salt", "", "partition salt")
	fs.StringVar(&pf.shift, "shift", "", "partition timestamp shift")
	fs.BoolVar(&pf.askSecret, "ask-secret", false, "prompt for the partition secret")
	return pf
}

// partition returns nil when no override was requested so the server uses
// its default key.
func (a *App) partition(pf *partitionFlags) (*pb.PartitionParams, error) {
	if pf.salt == "" && pf.shift == "" && !pf.askSecret {
		return nil, nil
	}

	p := &pb.PartitionParams{}
	if pf.salt != "" {
		p.Salt = &pf.salt
	}
	if pf.shift != "" {
		shift, err := strconv.ParseInt(pf.shift, 10, 64)
		if err != nil {
			return nil, invalid("shift must be an integer")
		}
		p.Shift = &shift
	}
	if pf.askSecret {
		secret, err := GetSecret(a.prompt, "Partition secret")
		if err != nil {
			return nil, err
		}
		if _, err := cryptox.ParseKey(secret); err != nil {
			return nil, err
		}
		p.Secret = &secret
	}
	return p, nil
}

func (a *App) status(ctx context.Context, args []string) error {
	at, err := a.client.Heartbeat(ctx)
	if err != nil {
		return err
	}
	settings, err := a.client.Settings(ctx)
	if err != nil {
		return err
	}
	return a.print(map[string]any{
		"status":   "OK",
		"time":     at.UTC().Format(time.RFC3339),
		"settings": settings,
	})
}

func (a *App) permission(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return invalid("permission takes exactly one fid")
	}
	fid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || fid <= 0 {
		return invalid("fid must be a positive integer")
	}
	pre, err := a.client.IsPrePermissionless(ctx, fid)
	if err != nil {
		return err
	}
	return a.print(map[string]any{"fid": fid, "isPrePermissionless": pre})
}

func (a *App) earliest(ctx context.Context, args []string) error {
	fs := newFlagSet("earliest")
	pf := addPartitionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.partition(pf)
	if err != nil {
		return err
	}
	ts, err := a.client.EarliestTimestamp(ctx, p)
	if err != nil {
		return err
	}
	return a.print(map[string]any{"timestamp": ts})
}

func (a *App) put(ctx context.Context, args []string) error {
	fs := newFlagSet("put")
	fid := fs.Int64("fid", 0, "author fid")
	ts := fs.String("ts", "", "timestamp in milliseconds (default now)")
	hash := fs.String("hash", "", "message hash")
	text := fs.String("text", "", "message text (prompted when empty)")
	hashed := fs.String("hashed", "", "Keccak-256 hex of the text (computed when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *fid <= 0 || *hash == "" {
		return invalid("-fid and -hash are required")
	}
	if *ts == "" {
		*ts = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	if *text == "" {
		line, err := GetSimpleText(a.reader, "Message text", a.prompt)
		if err != nil {
			return err
		}
		*text = line
	}
	if *hashed == "" && *text != "" {
		*hashed = cryptox.Keccak256Hex(*text)
	}

	data := models.ExternalData{Fid: *fid, Timestamp: *ts, MessageHash: *hash, Text: *text, HashedText: *hashed}
	if err := a.client.Put(ctx, data); err != nil {
		return err
	}
	return a.print(map[string]any{"success": true, "hashedText": data.HashedText})
}

func (a *App) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	fid := fs.Int64("fid", 0, "author fid")
	limit := fs.Int("limit", 0, "page size")
	desc := fs.Bool("desc", false, "newest first")
	cursor := fs.String("cursor", "", "cursor from the previous page")
	pf := addPartitionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fid <= 0 {
		return invalid("-fid is required")
	}
	p, err := a.partition(pf)
	if err != nil {
		return err
	}
	page, err := a.client.List(ctx, client.ListRequest{Fid: *fid, Limit: *limit, Descending: *desc, Cursor: *cursor}, p)
	if err != nil {
		return err
	}
	return a.print(page)
}

func (a *App) get(ctx context.Context, args []string) error {
	fs := newFlagSet("get")
	id := fs.String("id", "", "obscured message id")
	pf := addPartitionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return invalid("-id is required")
	}
	p, err := a.partition(pf)
	if err != nil {
		return err
	}
	msg, err := a.client.Get(ctx, *id, p)
	if err != nil {
		return err
	}
	return a.print(msg)
}

func (a *App) find(ctx context.Context, args []string) error {
	fs := newFlagSet("find")
	fid := fs.Int64("fid", 0, "author fid")
	text := fs.String("text", "", "plain message text")
	hashed := fs.String("hashed", "", "Keccak-256 hex of the text")
	pf := addPartitionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *hashed == "" && *text != "" {
		*hashed = cryptox.Keccak256Hex(*text)
	}
	if *fid <= 0 || *hashed == "" {
		return invalid("-fid and one of -text or -hashed are required")
	}
	p, err := a.partition(pf)
	if err != nil {
		return err
	}
	msg, err := a.client.Find(ctx, *fid, *hashed, p)
	if err != nil {
		return err
	}
	return a.print(msg)
}

func (a *App) reveal(ctx context.Context, args []string) error {
	fs := newFlagSet("reveal")
	cast := fs.String("cast", "", "cast hash")
	viewer := fs.Int64("viewer", 0, "viewer fid")
	pf := addPartitionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cast == "" {
		return invalid("-cast is required")
	}
	p, err := a.partition(pf)
	if err != nil {
		return err
	}
	revealed, err := a.client.Reveal(ctx, *cast, *viewer, p)
	if err != nil {
		return err
	}
	return a.print(revealed)
}

func (a *App) prune(ctx context.Context, args []string) error {
	fs := newFlagSet("prune")
	pf := addPartitionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.partition(pf)
	if err != nil {
		return err
	}
	n, err := a.client.Prune(ctx, p)
	if err != nil {
		return err
	}
	return a.print(map[string]any{"count": n})
}

func (a *App) channels(ctx context.Context, args []string) error {
	channels, err := a.client.Channels(ctx)
	if err != nil {
		return err
	}
	if channels == nil {
		channels = []models.EnabledChannel{}
	}
	return a.print(channels)
}

func (a *App) enable(ctx context.Context, args []string) error {
	fs := newFlagSet("enable")
	id := fs.String("channel", "", "channel id")
	url := fs.String("url", "", "channel parent url")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *url == "" {
		return invalid("-channel and -url are required")
	}
	if err := a.client.EnableChannel(ctx, *id, *url); err != nil {
		return err
	}
	return a.print(map[string]any{"success": true})
}

func (a *App) disable(ctx context.Context, args []string) error {
	fs := newFlagSet("disable")
	id := fs.String("channel", "", "channel id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return invalid("-channel is required")
	}
	if err := a.client.DisableChannel(ctx, *id); err != nil {
		return err
	}
	return a.print(map[string]any{"success": true})
}

func (a *App) export(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	pf := addPartitionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.partition(pf)
	if err != nil {
		return err
	}
	key, err := a.client.Export(ctx, p)
	if err != nil {
		return err
	}
	return a.print(map[string]any{"key": key})
}

func (a *App) importDump(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	path := fs.String("file", "", "JSON lines dump of stored records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return invalid("-file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := backup.DecodeJSONLines(f)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return errors.New("dump is empty")
	}

	n, err := a.client.Import(ctx, recs)
	if err != nil {
		return fmt.Errorf("imported %d of %d: %w", n, len(recs), err)
	}
	return a.print(map[string]any{"imported": n})
}

func (a *App) token(ctx context.Context, args []string) error {
	fs := newFlagSet("token")
	role := fs.String("role", auth.RoleClient, "token role (service or client)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret, err := GetSecret(a.prompt, "JWT secret")
	if err != nil {
		return err
	}
	token, err := auth.GenerateToken(*role, []byte(secret), *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, token)
	return err
}
