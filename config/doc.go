// Package config loads application configuration from a YAML file with
// .env and environment variable support.
//
// A minimal config file:
//
//	logging:
//	  level: info
//	s3:
//	  access_key: ${AWS_ACCESS_KEY_ID}
//	  secret_key: ${AWS_SECRET_ACCESS_KEY}
//	profiles:
//	  files:
//	    bucket: my-app-files
//	    auth: signed
//	    gzip: true
//	  static:
//	    bucket: my-app-static
//	    auth: public
//	    key_prefix: assets
//	    gzip: true
//
// The standard AWS credential variables override the s3 section, so the
// file can omit credentials entirely and rely on the environment or the
// AWS default credential chain.
package config
