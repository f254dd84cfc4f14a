// Package config provides configuration parsing for morph projects.
//
// The configuration is stored in morph.json (or morph.yaml / morph.yml) at
// the project root. This package handles loading, saving, and validating
// configuration.
//
// # Configuration File Structure
//
//	{
//	  "markers": {
//	    "key": "data-key",
//	    "boundary": "data-component-root"
//	  },
//	  "limits": {
//	    "maxSingletons": 1024,
//	    "maxChildren": 1024
//	  },
//	  "hooks": { "timeout": "5s" },
//	  "server": { "host": "localhost", "port": 3000, "path": "/live" },
//	  "metrics": { "enabled": true, "namespace": "morph" },
//	  "archive": {
//	    "bucket": "ui-snapshots",
//	    "region": "us-east-1",
//	    "endpoint": "http://localhost:9000",
//	    "pathStyle": true
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.ServerAddress())
package config
