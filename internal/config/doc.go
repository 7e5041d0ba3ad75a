// Package config loads the apparray configuration.
//
// Configuration lives in config.yaml inside the configuration directory
// (default ~/.config/apparray). A missing file yields the defaults; a
// malformed file is an error. Values present in the file override the
// defaults field by field:
//
//	backend:
//	  host: http://localhost:9090
//	  reconnectInterval: 10s
//	execution:
//	  idleTimeout: 5m
//	  queueSize: 64
//	  shell: /bin/sh
//	  environment:
//	    id: thisEnvironment
//	    context:
//	      namespace: shop
//	cache:
//	  driver: file        # file, badger or memory
//	  path: ~/.config/apparray/data
//	topology:
//	  file: ./topology.yaml
//	  debounce: 500ms
//	metrics:
//	  addr: :9102
package config
