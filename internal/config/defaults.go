package config

// Canonical workflow files written by `gantry init`. They encode the
// standard two-pipeline layout: every push and pull request against main is
// gated on format, lint and tests, with the changelog republished only on
// direct pushes; version tags build a release artifact and publish it with
// the scoped changelog excerpt.

// DefaultTestWorkflow is the test pipeline definition.
const DefaultTestWorkflow = `name: test
on:
  events: [push, pull_request]
  branches: [main]
jobs:
  - id: test
    steps:
      - uses: toolchain
        with:
          tools: [cargo]
      - name: restore-cache
        uses: cache
        with:
          path: target
          key-files: [Cargo.lock]
      - name: fmt-check
        run: cargo fmt --all -- --check
      - name: lint
        run: cargo clippy --all-targets -- -D warnings
      - name: tests
        run: cargo test
      - name: save-cache
        uses: cache
        with:
          action: save
          path: target
          key-files: [Cargo.lock]
  - id: changelog
    needs: [test]
    only:
      events: [push]
      branches: [main]
    steps:
      - uses: toolchain
        with:
          tools: [git-cliff, git]
      - uses: changelog
        with:
          config: cliff.toml
      - uses: publish-changelog
        with:
          branch: main
`

// DefaultReleaseWorkflow is the release pipeline definition.
const DefaultReleaseWorkflow = `name: release
on:
  events: [tag_push]
  tags: [v*]
jobs:
  - id: build
    steps:
      - uses: toolchain
        with:
          tools: [cargo]
      - uses: build
        with:
          command: cargo build --release
          artifact: target/release/app
  - id: notes
    steps:
      - uses: toolchain
        with:
          tools: [git-cliff]
      - uses: changelog
        with:
          mode: release
          config: cliff.toml
  - id: publish
    needs: [build, notes]
    steps:
      - uses: release
`
