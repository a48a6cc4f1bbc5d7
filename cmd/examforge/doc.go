// Command examforge turns photographed exam questions into a fresh,
// validated LaTeX paper through a four stage model pipeline.
package main
