package store

import (
	"bytes"
	"context"
	"encoding/json"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/zerr"
)

// treeRef is the on-disk stand-in for a *domain.FileTreeSnapshot: instead of inlining the
// tree, a record holds the content hash of the blob it was written under. Identical trees
// produced by different tasks, or different executions of the same task, hash identically
// and so collapse to one stored copy in the blob keyspace, refcounted by Blobs.
type treeRef struct {
	Hash uint64 `json:"hash"`
}

// wireRecord is the shape actually written to the history keyspace: every
// *domain.FileTreeSnapshot field of domain.TaskExecutionRecord is replaced by a treeRef,
// so a record's JSON stays small regardless of how large the trees it refers to are.
type wireRecord struct {
	RecordVersion                int
	TaskPath                     string
	BuildInvocationID            string
	Successful                   bool
	Implementation               domain.ImplementationSnapshots
	InputProperties              domain.ValueSnapshotMap
	InputFiles                   map[string]*treeRef
	DiscoveredInputs             *treeRef
	DeclaredOutputFilePaths      []string
	DetectedOverlappingOutputs   *domain.OverlappingOutputs
	OutputProperties             domain.ValueSnapshotMap
	OutputFiles                  map[string]*treeRef
	CacheableOutputPropertyNames []string
}

// toWireRecord writes every tree referenced by record into blobs (allocating it and
// incrementing its refcount if it is new content, or just incrementing the refcount if
// identical content is already stored under that hash) and returns the record's
// hash-indirected wire shape.
func toWireRecord(ctx context.Context, blobs *Blobs, record *domain.TaskExecutionRecord) (*wireRecord, error) {
	inputFiles, err := storeTrees(ctx, blobs, record.InputFiles)
	if err != nil {
		return nil, zerr.With(err, "field", "inputFiles")
	}
	outputFiles, err := storeTrees(ctx, blobs, record.OutputFiles)
	if err != nil {
		return nil, zerr.With(err, "field", "outputFiles")
	}
	discovered, err := storeTree(ctx, blobs, record.DiscoveredInputs)
	if err != nil {
		return nil, zerr.With(err, "field", "discoveredInputs")
	}

	return &wireRecord{
		RecordVersion:                record.RecordVersion,
		TaskPath:                     record.TaskPath,
		BuildInvocationID:            record.BuildInvocationID,
		Successful:                   record.Successful,
		Implementation:               record.Implementation,
		InputProperties:              record.InputProperties,
		InputFiles:                   inputFiles,
		DiscoveredInputs:             discovered,
		DeclaredOutputFilePaths:      record.DeclaredOutputFilePaths,
		DetectedOverlappingOutputs:   record.DetectedOverlappingOutputs,
		OutputProperties:             record.OutputProperties,
		OutputFiles:                  outputFiles,
		CacheableOutputPropertyNames: record.CacheableOutputPropertyNames,
	}, nil
}

// fromWireRecord reads every tree a wire record refers to back out of blobs and rebuilds
// the full domain.TaskExecutionRecord CurrentExecution and IsCompatibleForSkip expect.
func fromWireRecord(ctx context.Context, blobs *Blobs, wire *wireRecord) (*domain.TaskExecutionRecord, error) {
	inputFiles, err := loadTrees(ctx, blobs, wire.InputFiles)
	if err != nil {
		return nil, zerr.With(err, "field", "inputFiles")
	}
	outputFiles, err := loadTrees(ctx, blobs, wire.OutputFiles)
	if err != nil {
		return nil, zerr.With(err, "field", "outputFiles")
	}
	discovered, err := loadTree(ctx, blobs, wire.DiscoveredInputs)
	if err != nil {
		return nil, zerr.With(err, "field", "discoveredInputs")
	}

	return &domain.TaskExecutionRecord{
		RecordVersion:                wire.RecordVersion,
		TaskPath:                     wire.TaskPath,
		BuildInvocationID:            wire.BuildInvocationID,
		Successful:                   wire.Successful,
		Implementation:               wire.Implementation,
		InputProperties:              wire.InputProperties,
		InputFiles:                   inputFiles,
		DiscoveredInputs:             discovered,
		DeclaredOutputFilePaths:      wire.DeclaredOutputFilePaths,
		DetectedOverlappingOutputs:   wire.DetectedOverlappingOutputs,
		OutputProperties:             wire.OutputProperties,
		OutputFiles:                  outputFiles,
		CacheableOutputPropertyNames: wire.CacheableOutputPropertyNames,
	}, nil
}

// collectHashes gathers every blob hash a wire record refers to, for releasing once that
// record has been superseded by a newer one.
func collectHashes(wire *wireRecord) []uint64 {
	var hashes []uint64
	for _, ref := range wire.InputFiles {
		if ref != nil {
			hashes = append(hashes, ref.Hash)
		}
	}
	for _, ref := range wire.OutputFiles {
		if ref != nil {
			hashes = append(hashes, ref.Hash)
		}
	}
	if wire.DiscoveredInputs != nil {
		hashes = append(hashes, wire.DiscoveredInputs.Hash)
	}
	return hashes
}

func storeTrees(
	ctx context.Context, blobs *Blobs, trees map[string]*domain.FileTreeSnapshot,
) (map[string]*treeRef, error) {
	if trees == nil {
		return nil, nil
	}
	out := make(map[string]*treeRef, len(trees))
	for name, tree := range trees {
		ref, err := storeTree(ctx, blobs, tree)
		if err != nil {
			return nil, zerr.With(err, "property", name)
		}
		out[name] = ref
	}
	return out, nil
}

func storeTree(ctx context.Context, blobs *Blobs, tree *domain.FileTreeSnapshot) (*treeRef, error) {
	if tree == nil {
		return nil, nil
	}
	hash := tree.Hash()
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	if err := blobs.Put(ctx, hash, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &treeRef{Hash: hash}, nil
}

func loadTrees(ctx context.Context, blobs *Blobs, refs map[string]*treeRef) (map[string]*domain.FileTreeSnapshot, error) {
	if refs == nil {
		return nil, nil
	}
	out := make(map[string]*domain.FileTreeSnapshot, len(refs))
	for name, ref := range refs {
		tree, err := loadTree(ctx, blobs, ref)
		if err != nil {
			return nil, zerr.With(err, "property", name)
		}
		out[name] = tree
	}
	return out, nil
}

func loadTree(ctx context.Context, blobs *Blobs, ref *treeRef) (*domain.FileTreeSnapshot, error) {
	if ref == nil {
		return nil, nil
	}
	rc, err := blobs.Get(ctx, ref.Hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var tree domain.FileTreeSnapshot
	if err := json.NewDecoder(rc).Decode(&tree); err != nil {
		return nil, err
	}
	return &tree, nil
}
