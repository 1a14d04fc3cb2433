// Package buildsys drives the external CMake toolchain through a fixed
// sequence of stages: clean, prepare, configure, compile, artifact listing
// and an optional test run.
//
// Configure and compile each have a single fallback path. Expected failures
// are reported as stage results (booleans plus captured command output),
// never as Go errors. Only a configure run that fails with and without the
// vcpkg toolchain is fatal.
package buildsys
