// Package preflight provides readiness checks for the filesystem paths
// and external binaries Clipforge depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll before processing each queue item.
//     If any check fails, the lane halts rather than burning a run on a
//     doomed environment.
//   - The CLI "clipforge status" command uses CheckDirectoryAccess and
//     CheckSystemDeps to display environment health.
package preflight
