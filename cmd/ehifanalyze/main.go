package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/soypat/cc85xx/ehif"
	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"
)

// Optional flags.
var (
	timingsOutput string
)

type Decoder struct {
	OmitStatus   bool
	OmitReadData bool
	OmitRepeated bool
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "ehifanalyze - Process Binary Saleae digital data files corresponding to CC85xx EHIF transactions.\n\tUsage:\n")
		flag.PrintDefaults()
	}
	mosi := flag.String("f-mosi", "digital_1.bin", "Input filename: SPI MOSI data.")
	miso := flag.String("f-miso", "digital_3.bin", "Input filename: SPI MISO data.")
	enable := flag.String("f-cs", "digital_0.bin", "Input filename: SPI CSn data.")
	clk := flag.String("f-clk", "digital_2.bin", "Input filename: SPI SCK data.")
	output := flag.String("o-cmd", "transactions.txt", "Output filename of EHIF transactions.")
	flag.StringVar(&timingsOutput, "o-time", "", "Output timing data to a file corresponding to output transaction history line-by-line.")
	omitStatus := flag.Bool("omit-status", false, "Omit GET_STATUS transactions.")
	omitReadData := flag.Bool("omit-read-data", false, "Omit data received in READ and READBC transactions.")
	omitRepeated := flag.Bool("omit-rep", true, "Collapse consecutive identical transactions into one line with a repeat count.")
	verbose := flag.Bool("v", false, "Verbose logging.")
	flag.Parse()
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	dec := Decoder{
		OmitStatus:   *omitStatus,
		OmitReadData: *omitReadData,
		OmitRepeated: *omitRepeated,
	}
	start := time.Now()
	if err := dec.run(*mosi, *miso, *enable, *clk, *output); err != nil {
		slog.Error("analyze", slog.String("err", err.Error()))
		os.Exit(1)
	}
	slog.Info("finished", slog.Duration("elapsed", time.Since(start)))
}

func (dec *Decoder) run(mosi, miso, enable, clk, output string) error {
	txs, err := dec.processSpiFiles(mosi, miso, clk, enable)
	if err != nil {
		return err
	}
	fp, err := os.Create(output)
	if err != nil {
		return err
	}
	defer fp.Close()

	var timings *os.File
	if timingsOutput != "" {
		slog.Debug("creating timings file", slog.String("name", timingsOutput))
		timings, err = os.Create(timingsOutput)
		if err != nil {
			return err
		}
		defer timings.Close()
	}
	for _, tx := range txs {
		if err := tx.writeTo(fp); err != nil {
			return err
		}
		if timings != nil {
			fmt.Fprintf(timings, "t=%f\tdata=%#x\n", tx.Start, tx.Data)
		}
	}
	slog.Info("decoded", slog.Int("transactions", len(txs)), slog.String("output", output))
	return nil
}

func (dec *Decoder) processSpiFiles(fmosi, fmiso, fclk, fenable string) ([]ehiftx, error) {
	sdo, err := opendigital(fmosi)
	if err != nil {
		return nil, err
	}
	sdi, err := opendigital(fmiso)
	if err != nil {
		return nil, err
	}
	clk, err := opendigital(fclk)
	if err != nil {
		return nil, err
	}
	enable, err := opendigital(fenable)
	if err != nil {
		return nil, err
	}
	spi := analyzers.SPI{}
	txs, _ := spi.Scan(clk, enable, sdo, sdi)
	raw := make([]rawtx, len(txs))
	for i := range txs {
		raw[i] = rawtx{SDO: txs[i].SDO, SDI: txs[i].SDI, Start: txs[i].StartTime()}
	}
	return dec.process(raw), nil
}

func opendigital(filename string) (*saleae.DigitalFile, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return saleae.ReadDigitalFile(fp)
}

// rawtx is a CS framed exchange: bytes sent by the host and by the chip.
type rawtx struct {
	SDO   []byte
	SDI   []byte
	Start float64
}

type ehiftx struct {
	Num    int
	Hdr    ehif.Header
	Status ehif.Status
	// DevLen is the device reported READBC length.
	DevLen int
	Data   []byte
	Start  float64
}

func (tx *ehiftx) writeTo(w io.Writer) error {
	var err error
	switch tx.Hdr.Kind {
	case ehif.KindReadBC:
		_, err = fmt.Fprintf(w, "tx×%2d %-10s status=%s devlen=%d data=%#x\n", tx.Num, tx.Hdr.Kind, tx.Status, tx.DevLen, tx.Data)
	case ehif.KindGetStatus, ehif.KindBootReset, ehif.KindSysReset, ehif.KindUnknown:
		_, err = fmt.Fprintf(w, "tx×%2d %-10s status=%s\n", tx.Num, tx.Hdr.Kind, tx.Status)
	default:
		_, err = fmt.Fprintf(w, "tx×%2d %s status=%s data=%#x\n", tx.Num, tx.Hdr.String(), tx.Status, tx.Data)
	}
	return err
}

// decode interprets a single transaction. Transactions shorter than a header
// are reported as KindUnknown with whatever data was sent.
func (dec *Decoder) decode(raw rawtx) (tx ehiftx) {
	tx.Num = 1
	tx.Start = raw.Start
	if len(raw.SDO) < 2 {
		tx.Data = raw.SDO
		return tx
	}
	tx.Hdr = ehif.DecodeHeader(raw.SDO[0], raw.SDO[1])
	if len(raw.SDI) >= 2 {
		tx.Status = ehif.Status(uint16(raw.SDI[0])<<8 | uint16(raw.SDI[1]))
	}
	switch tx.Hdr.Kind {
	case ehif.KindRead:
		tx.Data = raw.SDI[min(2, len(raw.SDI)):]
	case ehif.KindReadBC:
		if len(raw.SDI) >= 4 {
			tx.DevLen = int(raw.SDI[2])<<8 | int(raw.SDI[3])
		}
		tx.Data = raw.SDI[min(4, len(raw.SDI)):]
	default:
		tx.Data = raw.SDO[2:]
	}
	if dec.OmitReadData && (tx.Hdr.Kind == ehif.KindRead || tx.Hdr.Kind == ehif.KindReadBC) {
		tx.Data = nil
	}
	return tx
}

func (dec *Decoder) process(raws []rawtx) (txs []ehiftx) {
	for i := 0; i < len(raws); i++ {
		tx := dec.decode(raws[i])
		if dec.OmitStatus && tx.Hdr.Kind == ehif.KindGetStatus {
			continue
		}
		if dec.OmitRepeated {
			for j := i + 1; j < len(raws); j++ {
				next := dec.decode(raws[j])
				if next.Hdr != tx.Hdr || next.Status != tx.Status || !bytes.Equal(next.Data, tx.Data) {
					break
				}
				tx.Num++
				i = j
			}
		}
		txs = append(txs, tx)
	}
	return txs
}
