package ehif

// Transferer exchanges a single byte over a full duplex bus. It matches the
// Transfer method of TinyGo's machine.SPI.
type Transferer interface {
	Transfer(w byte) (byte, error)
}

// Send transmits the host layout buffer host as big-endian wire fields
// described by spec. Bytes not covered by spec are not sent.
func Send(x Transferer, spec Spec, host []byte) error {
	return send(x, spec, host, hostSwap)
}

// Recv receives big-endian wire fields described by spec into the host layout
// buffer host. Bytes not covered by spec are left untouched.
func Recv(x Transferer, spec Spec, host []byte) error {
	return recv(x, spec, host, hostSwap)
}

func send(x Transferer, spec Spec, host []byte, swap bool) error {
	if !swap {
		for _, b := range host {
			if _, err := x.Transfer(b); err != nil {
				return err
			}
		}
		return nil
	}
	return spec.walk(len(host), func(off, width int) error {
		for i := off + width - 1; i >= off; i-- {
			if _, err := x.Transfer(host[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func recv(x Transferer, spec Spec, host []byte, swap bool) error {
	if !swap {
		for i := range host {
			b, err := x.Transfer(0)
			if err != nil {
				return err
			}
			host[i] = b
		}
		return nil
	}
	return spec.walk(len(host), func(off, width int) error {
		for i := off + width - 1; i >= off; i-- {
			b, err := x.Transfer(0)
			if err != nil {
				return err
			}
			host[i] = b
		}
		return nil
	})
}
