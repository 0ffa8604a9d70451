// Package vault is a store.Store over a directory of markdown contact
// notes.
//
// Every note matching the include glob is one contact. Its UID, display
// name and gender come from the UID, FN and GENDER frontmatter fields.
// Revisions are counters backed by a blake3 hash of the file, so an edit
// made outside the vault between a read and a write is detected.
package vault

import (
	"context"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"lukechampine.com/blake3"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/logging"
	"github.com/agentstation/kinmap/pkg/relations"
	"github.com/agentstation/kinmap/pkg/store"
)

const uuidPrefix = "urn:uuid:"

// note is one indexed contact file.
type note struct {
	path     string // slash-separated, relative to the vault root
	contact  graph.Contact
	hasUID   bool // UID came from frontmatter rather than the path
	hash     [32]byte
	revision store.Revision
}

// Vault is a markdown-directory contact store.
type Vault struct {
	root    string
	options *options

	mu    sync.RWMutex
	notes map[string]*note // by UID
}

var _ store.Store = (*Vault)(nil)

// Open indexes the notes below root.
func Open(ctx context.Context, root string, opts ...Option) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapIO("open", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.WrapIO("open", abs, err)
	}
	if !info.IsDir() {
		return nil, &errors.ValidationError{Field: "root", Value: abs, Message: "not a directory"}
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	v := &Vault{root: abs, options: o, notes: make(map[string]*note)}
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Refresh re-reads the directory. Revision counters of contacts that
// keep their UID survive.
func (v *Vault) Refresh(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	paths, err := doublestar.Glob(os.DirFS(v.root), v.options.include, doublestar.WithFilesOnly())
	if err != nil {
		return errors.WrapIO("glob", v.root, err)
	}
	slices.Sort(paths)

	notes := make(map[string]*note, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if v.options.excluded(p) {
			continue
		}
		n, err := v.load(p)
		if err != nil {
			return err
		}
		if prev, dup := notes[n.contact.UID]; dup {
			logger.Warn().
				Str("contact", n.contact.UID).
				Str("path", p).
				Str("kept", prev.path).
				Msg("Duplicate UID skipped")
			continue
		}
		notes[n.contact.UID] = n
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for uid, n := range notes {
		if old, ok := v.notes[uid]; ok {
			n.revision = old.revision
			if old.hash != n.hash {
				n.revision++
			}
		}
	}
	v.notes = notes

	logger.Debug().Str("root", v.root).Int("contacts", len(notes)).Msg("Indexed vault")
	return nil
}

// load reads one note and derives its contact attributes. A note whose
// frontmatter does not parse is still indexed under its path so the
// reconciler can report it.
func (v *Vault) load(rel string) (*note, error) {
	data, err := fs.ReadFile(os.DirFS(v.root), rel)
	if err != nil {
		return nil, errors.WrapIO("read", rel, err)
	}

	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	n := &note{
		path: rel,
		hash: blake3.Sum256(data),
		contact: graph.Contact{
			UID:         strings.TrimSuffix(rel, path.Ext(rel)),
			DisplayName: stem,
			Handle:      rel,
		},
		revision: 1,
	}

	doc, err := codec.ParseDocument(string(data))
	if err != nil {
		logging.Warn().Err(err).Str("path", rel).Msg("Note frontmatter does not parse")
		return n, nil
	}
	if uid, ok := doc.Get(constants.UIDField); ok && normalizeUID(uid) != "" {
		n.contact.UID = normalizeUID(uid)
		n.hasUID = true
	}
	if name, ok := doc.Get(constants.NameField); ok && strings.TrimSpace(name) != "" {
		n.contact.DisplayName = strings.TrimSpace(name)
	}
	if gender, ok := doc.Get(constants.GenderField); ok {
		n.contact.Gender = relations.ParseGender(gender)
	}
	return n, nil
}

// normalizeUID strips a urn:uuid: prefix and lowercases UUIDs.
func normalizeUID(raw string) string {
	uid := strings.TrimSpace(raw)
	if len(uid) >= len(uuidPrefix) && strings.EqualFold(uid[:len(uuidPrefix)], uuidPrefix) {
		uid = strings.TrimSpace(uid[len(uuidPrefix):])
	}
	if codec.IsUUID(uid) {
		uid = strings.ToLower(uid)
	}
	return uid
}

func (v *Vault) lookup(uid string) (*note, error) {
	n, ok := v.notes[uid]
	if !ok {
		return nil, errors.NewNotFoundError("contact", uid)
	}
	return n, nil
}

// Path returns the absolute file path of a contact's note.
func (v *Vault) Path(uid string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	n, err := v.lookup(uid)
	if err != nil {
		return "", err
	}
	return filepath.Join(v.root, filepath.FromSlash(n.path)), nil
}

// ReadContactText implements store.Reader.
func (v *Vault) ReadContactText(ctx context.Context, uid string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file, err := v.Path(uid)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", errors.WrapIO("read", file, err)
	}
	return string(data), nil
}

// WriteContactText implements store.Writer. The recorded hash follows the
// written text so our own writes never look like external edits.
func (v *Vault) WriteContactText(ctx context.Context, uid, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.lookup(uid)
	if err != nil {
		return err
	}
	file := filepath.Join(v.root, filepath.FromSlash(n.path))
	if err := writeFile(file, []byte(text)); err != nil {
		return err
	}
	n.hash = blake3.Sum256([]byte(text))
	return nil
}

// writeFile replaces file through a temporary sibling and a rename.
func writeFile(file string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".*")
	if err != nil {
		return errors.WrapIO("create", file, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		return errors.WrapIO("rename", file, err)
	}
	return nil
}

// CurrentRevision implements store.Revisions. The counter advances when
// the file's hash differs from the last one recorded.
func (v *Vault) CurrentRevision(ctx context.Context, uid string) (store.Revision, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.lookup(uid)
	if err != nil {
		return 0, err
	}
	file := filepath.Join(v.root, filepath.FromSlash(n.path))
	data, err := os.ReadFile(file)
	if err != nil {
		return 0, errors.WrapIO("read", file, err)
	}
	if sum := blake3.Sum256(data); sum != n.hash {
		n.hash = sum
		n.revision++
	}
	return n.revision, nil
}

// AdvanceRevision implements store.Revisions.
func (v *Vault) AdvanceRevision(_ context.Context, uid string) (store.Revision, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.lookup(uid)
	if err != nil {
		return 0, err
	}
	n.revision++
	return n.revision, nil
}

// ResolveContact implements store.Resolver. UUID and UID references match
// UIDs. Name references match the display name or the file stem,
// case-insensitively, preferring the lowest UID.
func (v *Vault) ResolveContact(_ context.Context, ref codec.Reference) (string, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	switch ref.Kind {
	case codec.KindUUID, codec.KindUID:
		uid := normalizeUID(ref.Value)
		if _, ok := v.notes[uid]; ok {
			return uid, true, nil
		}
		return "", false, nil
	default:
		fold := cases.Fold()
		want := fold.String(strings.TrimSpace(ref.Value))
		if want == "" {
			return "", false, nil
		}
		for _, uid := range slices.Sorted(maps.Keys(v.notes)) {
			n := v.notes[uid]
			stem := strings.TrimSuffix(path.Base(n.path), path.Ext(n.path))
			if fold.String(n.contact.Name()) == want || fold.String(stem) == want {
				return uid, true, nil
			}
		}
		return "", false, nil
	}
}

// ListContacts implements store.Directory.
func (v *Vault) ListContacts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Sorted(maps.Keys(v.notes)), nil
}

// DescribeContact implements store.Directory.
func (v *Vault) DescribeContact(_ context.Context, uid string) (graph.Contact, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	n, err := v.lookup(uid)
	if err != nil {
		return graph.Contact{}, err
	}
	return n.contact, nil
}

// Assignment records a UID minted for a note.
type Assignment struct {
	Path string `json:"path" yaml:"path"`
	UID  string `json:"uid" yaml:"uid"`
}

// AssignMissingUIDs writes a fresh UUID into every note whose frontmatter
// has no UID, then re-indexes. With dryRun set nothing is written and the
// returned assignments show what would happen.
func (v *Vault) AssignMissingUIDs(ctx context.Context, dryRun bool) ([]Assignment, error) {
	v.mu.RLock()
	var pending []*note
	for _, uid := range slices.Sorted(maps.Keys(v.notes)) {
		if n := v.notes[uid]; !n.hasUID {
			pending = append(pending, n)
		}
	}
	v.mu.RUnlock()

	logger := logging.FromContext(ctx)
	var assigned []Assignment
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return assigned, err
		}
		id := uuid.NewString()
		assigned = append(assigned, Assignment{Path: n.path, UID: id})
		if dryRun {
			continue
		}

		file := filepath.Join(v.root, filepath.FromSlash(n.path))
		data, err := os.ReadFile(file)
		if err != nil {
			return assigned, errors.WrapIO("read", file, err)
		}
		doc, err := codec.ParseDocument(string(data))
		if err != nil {
			logger.Warn().Err(err).Str("path", n.path).Msg("Skipping note with unparsable frontmatter")
			assigned = assigned[:len(assigned)-1]
			continue
		}
		doc.Set(constants.UIDField, uuidPrefix+id)
		if _, ok := doc.Get(constants.NameField); !ok {
			doc.Set(constants.NameField, n.contact.DisplayName)
		}
		text, err := doc.Render()
		if err != nil {
			return assigned, errors.WrapResource("encode", "contact", n.contact.UID, err)
		}
		if err := writeFile(file, []byte(text)); err != nil {
			return assigned, err
		}
		logger.Info().Str("path", n.path).Str("contact", id).Msg("Assigned UID")
	}

	if dryRun || len(assigned) == 0 {
		return assigned, nil
	}
	return assigned, v.Refresh(ctx)
}
