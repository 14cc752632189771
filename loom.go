// Package loom keeps a retained, id-addressed shadow tree in sync with an
// externally-owned native rendering engine, and routes the engine's input
// events back into registered handlers with capture/target/bubble
// propagation.
//
// The package is the glue surface a declarative component framework calls
// into: structural edits (create/append/insert/remove/update) mutate the
// shadow tree, update event bookkeeping, and mark nodes dirty; a commit
// flushes every dirty node to the engine in one batched call. Loom does
// not compute layout, paint, or diff component trees - it mirrors and it
// routes.
//
// One Session per native window. Sessions share nothing: tree, handler
// registry, pending mutation set, and the native call arena are all owned
// per session.
package loom
