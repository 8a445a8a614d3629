package echotrace

import (
	"fmt"
	"log"
	"time"

	"IoMTSpectra/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// Reader reads UDP echo traffic from a pcap file and reconstructs flow
// records from it.
type Reader struct {
	handle *pcap.Handle
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle}, nil
}

// Close closes the pcap handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// ReadRecords consumes the whole capture and returns the reconstructed
// flow records in first-seen order. Unsupported packets are logged and
// skipped.
func (r *Reader) ReadRecords() ([]model.FlowRecord, error) {
	asm := NewAssembler()

	packetSource := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for packet := range packetSource.Packets() {
		ts, srcAddr, dstAddr, srcPort, dstPort, err := decodePacket(packet)
		if err != nil {
			log.Printf("Skipping packet: %v", err)
			continue
		}
		asm.AddPacket(ts, srcAddr, dstAddr, srcPort, dstPort)
	}

	return asm.Records(), nil
}

// decodePacket extracts the UDP echo tuple from a captured packet.
func decodePacket(packet gopacket.Packet) (time.Time, string, string, uint16, uint16, error) {
	ts := time.Now()
	if meta := packet.Metadata(); meta != nil {
		ts = meta.Timestamp
	}

	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return ts, "", "", 0, 0, fmt.Errorf("not an IPv4 packet")
	}
	ip := ipLayer.(*layers.IPv4)

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return ts, "", "", 0, 0, fmt.Errorf("not a UDP packet")
	}
	udp := udpLayer.(*layers.UDP)

	return ts, ip.SrcIP.String(), ip.DstIP.String(), uint16(udp.SrcPort), uint16(udp.DstPort), nil
}
