// Package files provides workbook discovery and job workspace management
// for the BOQ scope extractor.
//
// This package contains two main components:
//
// Discovery: Walks an extracted archive tree and locates every .xls/.xlsx
// workbook, tagging each with its TDR folder (the immediate parent
// directory). Excel owner files ("~$" prefix) are skipped and results are
// returned in a deterministic (folder, name) order.
//
// Manager: Owns the per-job staging and export directories under the
// configured workspace roots, including stale directory cleanup for
// interrupted runs.
//
// Example usage:
//
//	// Walk an unpacked archive
//	discovery := files.NewDiscovery("/tmp/staging/job-123")
//	refs, err := discovery.FindSpreadsheets()
//
//	// Manage job workspaces
//	manager := files.NewManager(paths)
//	dir, err := manager.JobStagingDir("job-123")
package files
