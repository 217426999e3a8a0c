// Package config provides configuration parsing for docsave.
//
// The configuration is stored in docsave.json. Every field is optional;
// missing values take the defaults returned by New.
//
// # Configuration File Structure
//
//	{
//	  "generator": "docsave 1.2",
//	  "sanitize": {
//	    "remove": ".removeOnSave, #toc-nav",
//	    "sidebarClass": "toc-sidebar"
//	  },
//	  "format": {
//	    "indentSize": 2
//	  },
//	  "diff": {
//	    "tool": "https://www5.aptest.com/standards/htmldiff/htmldiff.pl",
//	    "previousURI": "https://www.w3.org/TR/2019/WD-spec-20190101/"
//	  },
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 8080,
//	    "bodyLimit": 10485760
//	  },
//	  "publish": {
//	    "output": "snapshot",
//	    "s3": {"bucket": "snapshots", "prefix": "specs/", "region": "eu-west-1"}
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
//	fmt.Println("Listening on", cfg.Address())
package config
