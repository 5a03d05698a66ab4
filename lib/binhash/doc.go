// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash fingerprints toolset files with BLAKE3.
//
// The sandbox toolset is re-copied on every provisioning pass so that
// updates to the shipped mock commands always reach the learner's
// sandbox. Comparing the digest of each copy with the previously
// installed file lets the installer report which commands actually
// changed without giving up the overwrite-always behavior.
//
// [CopyFile] writes and hashes in one pass; [HashFile] hashes a file in
// place. Both return a [Digest], whose String method gives the hex form.
//
// This package has no dependencies on other Terminal Fun packages.
package binhash
