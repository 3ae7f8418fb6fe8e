/*
Package message provides types and functions to work with the traffic of an
ACARS relay.

The relay answers poll and connect requests with a blob of brace-delimited
envelopes, e.g.:

	ok {SERVER telex {WELCOME}} {ZSHA cpdlc {/data2/12//WU/CLIMB TO FL350}}

Parse splits the blob into Envelope values. Envelopes of type cpdlc carry an
additional CPDLC record with the message identifiers and the reply policy of
the datalink exchange. Message identifiers for outbound traffic come from a
Sequencer, which must be told about every identifier seen in inbound traffic.
*/
package message
