// Package config loads runtime configuration for weft.
//
// Configuration is read from an optional weft.yaml, then overridden by
// WEFT_* environment variables. Anything left unset keeps its default.
//
// # Configuration File Structure
//
//	delegation:
//	  defaultEvents: [click, input, keydown]
//	  passiveEvents: [touchstart, touchmove, wheel]
//	hydration:
//	  recover: true
//	bridge:
//	  addr: 127.0.0.1:7420
//	  readLimit: 65536
//	  writeTimeout: 10s
//	metrics:
//	  enabled: true
//	  namespace: weft
//	log:
//	  level: debug
//	  format: json
//
// # Environment
//
// Nested fields map to upper-case names joined by underscores, e.g.
// WEFT_BRIDGE_ADDR, WEFT_HYDRATION_RECOVER or
// WEFT_DELEGATION_DEFAULT_EVENTS=click,input.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Log.NewLogger(os.Stderr)
package config
