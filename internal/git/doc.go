// Package git resolves repository references and reconciles issue worktrees.
//
// Commands run through an injected [cmd.Runner] so the reconciler can be
// exercised with a scripted fake. Read-only lookups that the git CLI makes
// awkward (origin URL, ref-name grammar) use go-git.
//
// # Reference Resolution
//
//   - [Client.ListWorktrees]: Registered worktrees keyed by branch
//   - [Client.RefExists]: Probe a full ref such as refs/heads/main
//   - [Client.DefaultBaseBranch]: origin/HEAD, then main/master, then "main"
//   - [Client.RepoRoot], [Client.CommonDir], [Client.OriginURL]
//
// # Reconciliation
//
// [Client.Reconcile] drives a [Request] to one of three outcomes:
//
//   - [StatusReused]: the branch already has a registered worktree
//   - [StatusPlanned]: dry-run, the [Plan] was built but nothing ran
//   - [StatusCreated]: the worktree was added
//
// A target path that already exists but is not a registered worktree of the
// requested branch is never adopted; see [PathCollisionError].
//
// # Locking
//
// [Lock] takes an advisory per-repository file lock in the git common
// directory so concurrent invocations against one repository serialize.
package git
