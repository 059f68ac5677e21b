// Package catalog holds the instrument model records that parameterize
// drivers.
//
// One driver serves a whole family of instruments. What differs between
// SKUs (the common commands they accept, their error table, default link
// settings and value ranges) lives in a Model record instead of a
// subclass per product. The records ship embedded in catalog.yaml and can
// be extended or overridden from a user file:
//
//	cat := catalog.Default()
//	user, err := catalog.LoadFile("lab.yaml")
//	if err != nil { ... }
//	cat = cat.Merge(user)
//	m, ok := cat.Lookup("agilent-e8247c")
//
// # File format
//
//	models:
//	  - key: agilent-e8247c
//	    manufacturer: Agilent
//	    product: E8247C
//	    classification: Signal Generator
//	    family: siggen
//	    scpi: "*IDN? *RST"
//	    transport:
//	      port: 5025
//	      gpib_address: 19
//	    limits:
//	      frequency: {min: 250e3, max: 20e9, unit: Hz}
//
// Unknown fields and duplicate keys are configuration faults.
package catalog
