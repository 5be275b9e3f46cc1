// Package harness runs conformance scenarios for the verification pass.
//
// A scenario is a YAML file pairing a serialized statement tree with a
// limit configuration and an expected verdict. Each scenario captures a
// kernel shape and a device, and pins down whether the gate should
// accept it.
//
// Scenario files reference their tree by relative path, so a scenario
// directory is self-contained and relocatable. Reports serialize
// canonically (sorted keys, NFC strings) so golden comparisons are
// byte-stable.
package harness
