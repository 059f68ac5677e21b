// Package bridge polls instruments on cron schedules and forwards each
// reading to a bbolt history and an MQTT broker.
//
// # Configuration
//
// A bridge is described by a YAML file:
//
//	store: /var/lib/meas-bridge/readings.db
//	retention: 720h
//	broker:
//	  url: tcp://localhost:1883
//	  client_id: meas-bridge
//	  topic_prefix: lab
//	instruments:
//	  - name: cryo
//	    model: lakeshore-218
//	    resource: serial:///dev/ttyUSB0
//	    polls:
//	      - schedule: "*/10 * * * * * *"
//	        command: Kelvin
//	        args: ["0"]
//
// Schedules use the cronexpr syntax, so a seven-field expression adds
// seconds and years. Commands are device registry names, shortcuts or
// catalog aliases.
//
// # Topics
//
// Readings go to <prefix>/<instrument>/<command> as JSON. The bridge
// keeps <prefix>/status at "online" while connected; the broker sets it
// to "offline" through the last will.
package bridge
