// Package debug provides build-tag gated assertions, mirroring aistore's
// cmn/debug convention: Assert and AssertNoErr compile to no-ops unless the
// "debug" build tag is set, so the segmentation and pSync invariants they
// check never cost anything in production builds. See debug_on.go and
// debug_off.go for the two build variants.
package debug
